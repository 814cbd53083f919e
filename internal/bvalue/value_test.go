package bvalue

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseAndAssert(t *testing.T, input string, expected Value) {
	t.Helper()
	v, err := Parse([]byte(input))
	require.NoError(t, err, "input %q", input)
	assert.True(t, Equal(expected, v), "input %q: expected %#v, got %#v", input, expected, v)
}

func TestParseScalars(t *testing.T) {
	parseAndAssert(t, "i123e", Int(123))
	parseAndAssert(t, "i-123e", Int(-123))
	parseAndAssert(t, "i0e", Int(0))
	parseAndAssert(t, "5:hello", Bytes("hello"))
	parseAndAssert(t, "0:", Bytes(""))
	parseAndAssert(t, "4:\x00\xff\xfe\x01", Bytes{0x00, 0xff, 0xfe, 0x01})
}

func TestParseContainers(t *testing.T) {
	parseAndAssert(t, "li1ei2ei3ee", List{Int(1), Int(2), Int(3)})
	parseAndAssert(t, "le", List{})
	parseAndAssert(t, "lli1eel9:test testelee", List{List{Int(1)}, List{Bytes("test test")}, List{}})
	parseAndAssert(t, "d3:key5:valuee", Dict{"key": Bytes("value")})
	parseAndAssert(t, "d4:dictd9:space keyi4eee", Dict{"dict": Dict{"space key": Int(4)}})
	parseAndAssert(t, "de", Dict{})
}

func TestParseUnsortedKeys(t *testing.T) {
	parseAndAssert(t, "d1:bi2e1:ai1ee", Dict{"a": Int(1), "b": Int(2)})
	parseAndAssert(t, "ld1:z0:1:y0:ee", List{Dict{"z": Bytes(""), "y": Bytes("")}})

	v, err := Parse([]byte("d4:zetai1e5:alphad1:yi0e1:xi0eee"))
	require.NoError(t, err)
	b, err := Encode(v)
	require.NoError(t, err)
	assert.Equal(t, "d5:alphad1:xi0e1:yi0ee4:zetai1ee", string(b))
}

func TestParseMalformed(t *testing.T) {
	for _, input := range []string{"i125i", "li13i2e", "d3:key", "5:abc", "i1ei2e", ""} {
		_, err := Parse([]byte(input))
		var pe *ParseError
		assert.True(t, errors.As(err, &pe), "input %q: got %v", input, err)
	}
}

func TestEncodeSortsKeys(t *testing.T) {
	d := Dict{
		"zeta":  Int(1),
		"a":     Bytes("x"),
		"B":     List{Int(-2), Bytes("")},
		"ab":    Dict{"y": Int(0), "x": Int(0)},
		"\xff":  Int(9),
		"a\x00": Int(3),
	}
	b, err := Encode(d)
	require.NoError(t, err)
	assert.Equal(t, "d1:Bli-2e0:e1:a1:x2:a\x00i3e2:abd1:xi0e1:yi0ee4:zetai1e1:\xffi9ee", string(b))
}

func TestEncodeRoundTrip(t *testing.T) {
	input := "d1:ai1e1:bl3:fooi-7ed1:c0:eee"
	v, err := Parse([]byte(input))
	require.NoError(t, err)
	b, err := Encode(v)
	require.NoError(t, err)
	assert.Equal(t, input, string(b))
}

func TestEncodeNil(t *testing.T) {
	_, err := Encode(List{Int(1), nil})
	assert.Error(t, err)
}

func TestExpect(t *testing.T) {
	d, err := ExpectDict(Dict{"k": Int(1)})
	require.NoError(t, err)
	assert.Len(t, d, 1)

	_, err = ExpectDict(List{})
	var tm *TypeMismatchError
	require.True(t, errors.As(err, &tm))
	assert.Equal(t, KindDict, tm.Expected)
	assert.Equal(t, KindList, tm.Found)
	assert.Equal(t, "expected dictionary, found list", err.Error())

	_, err = ExpectList(Int(3))
	require.True(t, errors.As(err, &tm))
	assert.Equal(t, KindList, tm.Expected)
	assert.Equal(t, KindInt, tm.Found)

	_, err = ExpectBytes(Dict{})
	require.True(t, errors.As(err, &tm))
	assert.Equal(t, KindBytes, tm.Expected)
	assert.Equal(t, KindDict, tm.Found)

	i, err := ExpectInt(Int(42))
	require.NoError(t, err)
	assert.EqualValues(t, 42, i)
	_, err = ExpectInt(Bytes("42"))
	require.True(t, errors.As(err, &tm))
	assert.Equal(t, KindBytes, tm.Found)
}

func TestCloneIsDeep(t *testing.T) {
	orig := Dict{"l": List{Bytes("abc")}}
	c := CloneDict(orig)
	c["l"].(List)[0].(Bytes)[0] = 'z'
	assert.Equal(t, Bytes("abc"), orig["l"].(List)[0])
	assert.Equal(t, []string{"l"}, c.Keys())
}
