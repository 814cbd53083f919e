package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anacrolix/log"

	"torrent-probe/internal/bvalue"
	"torrent-probe/internal/torrentfile"
	"torrent-probe/internal/tracker"
)

type Config struct {
	Port       uint
	Compact    bool
	NumWant    int
	Timeout    time.Duration
	PeerPrefix string
	Debug      bool
}

const usage = `usage: torrent-probe [flags] <command> <file.torrent>

commands:
  info      print the decoded metainfo
  hash      print the info-hash
  announce  announce to the trackers and print the returned peers
  raw       print the generic value tree

flags:
`

func parseConfig(args []string, output io.Writer) (Config, []string, error) {
	var cfg Config
	fs := flag.NewFlagSet("torrent-probe", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.UintVar(&cfg.Port, "port", 6881, "port reported to the tracker")
	fs.BoolVar(&cfg.Compact, "compact", true, "ask the tracker for a compact peer list")
	fs.IntVar(&cfg.NumWant, "numwant", 0, "number of peers wanted, 0 lets the tracker decide")
	fs.DurationVar(&cfg.Timeout, "timeout", 15*time.Second, "tracker request timeout")
	fs.StringVar(&cfg.PeerPrefix, "peer-prefix", tracker.DefaultPeerIDPrefix, "peer id prefix")
	fs.BoolVar(&cfg.Debug, "debug", false, "log request and response details")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return cfg, nil, err
	}
	if cfg.Port > 65535 {
		return cfg, nil, fmt.Errorf("port %d out of range", cfg.Port)
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return cfg, nil, errors.New("expected a command and a torrent file")
	}
	return cfg, fs.Args(), nil
}

func main() {
	cfg, args, err := parseConfig(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := log.Default.WithNames("main")
	if !cfg.Debug {
		logger = logger.FilterLevel(log.Info)
	}
	if err := run(context.Background(), cfg, logger, args[0], args[1], os.Stdout); err != nil {
		logger.Levelf(log.Error, "%s: %v", args[0], err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, logger log.Logger, cmd, path string, w io.Writer) error {
	if cmd == "raw" {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		v, err := bvalue.Parse(data)
		if err != nil {
			return err
		}
		printRaw(w, "", v)
		return nil
	}
	m, err := torrentfile.Load(path)
	if err != nil {
		return err
	}
	switch cmd {
	case "info":
		return printInfo(w, m)
	case "hash":
		h, err := m.InfoHash()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, h.HexString())
		return nil
	case "announce":
		return announce(ctx, cfg, logger, m, tracker.NewHTTPTransport(cfg.Timeout), w)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printInfo(w io.Writer, m *torrentfile.Metadata) error {
	h, err := m.InfoHash()
	if err != nil {
		return err
	}
	info := &m.Info
	fmt.Fprintf(w, "name: %s\n", info.Name)
	fmt.Fprintf(w, "info hash: %s\n", h.HexString())
	fmt.Fprintf(w, "announce: %s\n", m.Announce)
	for i, tier := range m.AnnounceList {
		fmt.Fprintf(w, "tier %d: %s\n", i, strings.Join(tier, " "))
	}
	if m.CreatedBy != "" {
		fmt.Fprintf(w, "created by: %s\n", m.CreatedBy)
	}
	if !m.CreationDate.IsZero() {
		fmt.Fprintf(w, "creation date: %s\n", m.CreationDate.UTC().Format(time.RFC3339))
	}
	if m.Comment != "" {
		fmt.Fprintf(w, "comment: %s\n", m.Comment)
	}
	for _, u := range m.URLList {
		fmt.Fprintf(w, "web seed: %s\n", u)
	}
	fmt.Fprintf(w, "private: %t\n", info.Private)
	fmt.Fprintf(w, "piece length: %d\n", info.PieceLength)
	fmt.Fprintf(w, "pieces: %d\n", info.NumPieces())
	fmt.Fprintf(w, "total length: %d\n", info.TotalLength())
	if info.IsMultiFile() {
		for _, f := range info.Files() {
			fmt.Fprintf(w, "file: %s %d\n", f.DisplayPath(), f.Length)
		}
	}
	for _, k := range m.ExtraFields.Keys() {
		fmt.Fprintf(w, "extra: %s\n", k)
	}
	return nil
}

// printRaw writes one line per node with its path and kind, plus the value
// of scalars. Byte strings that are not text are shown by length only.
func printRaw(w io.Writer, path string, v bvalue.Value) {
	label := path
	if label == "" {
		label = "."
	}
	switch v := v.(type) {
	case bvalue.Int:
		fmt.Fprintf(w, "%s: %s %d\n", label, v.Kind(), v)
	case bvalue.Bytes:
		if utf8.Valid(v) && len(v) <= 80 {
			fmt.Fprintf(w, "%s: %s %q\n", label, v.Kind(), string(v))
		} else {
			fmt.Fprintf(w, "%s: %s (%d bytes)\n", label, v.Kind(), len(v))
		}
	case bvalue.List:
		fmt.Fprintf(w, "%s: %s (%d)\n", label, v.Kind(), len(v))
		for i, e := range v {
			printRaw(w, path+"["+strconv.Itoa(i)+"]", e)
		}
	case bvalue.Dict:
		fmt.Fprintf(w, "%s: %s (%d)\n", label, v.Kind(), len(v))
		for _, k := range v.Keys() {
			child := k
			if path != "" {
				child = path + "." + k
			}
			printRaw(w, child, v[k])
		}
	}
}

// announce walks the trackers in tier order and stops at the first one that
// answers with a peer list.
func announce(ctx context.Context, cfg Config, logger log.Logger, m *torrentfile.Metadata, transport tracker.Transport, w io.Writer) error {
	peerID, err := tracker.GenPeerID(cfg.PeerPrefix)
	if err != nil {
		return err
	}
	req, err := tracker.NewRequest(m, peerID, uint16(cfg.Port))
	if err != nil {
		return err
	}
	req.Compact = cfg.Compact
	req.NumWant = cfg.NumWant

	var lastErr error
	for _, announceURL := range m.Trackers() {
		if u, err := url.Parse(announceURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			logger.Levelf(log.Debug, "skipping tracker %q", announceURL)
			continue
		}
		s := tracker.NewSession(announceURL, transport)
		s.Logger = logger.WithNames("tracker")
		resp, err := s.Announce(ctx, req)
		if err != nil {
			logger.Levelf(log.Warning, "announce to %s: %v", announceURL, err)
			lastErr = err
			continue
		}
		interval, _ := s.Interval()
		fmt.Fprintf(w, "tracker: %s\n", s.URL())
		fmt.Fprintf(w, "interval: %ds\n", interval)
		if resp.Complete >= 0 && resp.Incomplete >= 0 {
			fmt.Fprintf(w, "seeders: %d leechers: %d\n", resp.Complete, resp.Incomplete)
		}
		for _, p := range resp.Peers {
			fmt.Fprintln(w, p)
		}
		return nil
	}
	if lastErr == nil {
		return errors.New("no http tracker to announce to")
	}
	return lastErr
}
