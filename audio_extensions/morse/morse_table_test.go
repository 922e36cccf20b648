package morse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	p, ok := Lookup('S')
	require.True(t, ok)
	assert.Equal(t, "...", p)

	p, ok = Lookup('0')
	require.True(t, ok)
	assert.Equal(t, "-----", p)

	p, ok = Lookup(' ')
	require.True(t, ok)
	assert.Equal(t, WordGap, p)

	_, ok = Lookup('s')
	assert.False(t, ok, "table is uppercase only")
	_, ok = Lookup('#')
	assert.False(t, ok)
}

func TestTableRoundTrip(t *testing.T) {
	seen := map[string]rune{}
	for _, e := range Table() {
		if e.Pattern == WordGap {
			continue
		}
		for _, el := range e.Pattern {
			require.Contains(t, []rune{'.', '-'}, el, "pattern for %q", e.Char)
		}
		prev, dup := seen[e.Pattern]
		require.False(t, dup, "%q and %q share %s", prev, e.Char, e.Pattern)
		seen[e.Pattern] = e.Char

		r, ok := Decode(e.Pattern)
		require.True(t, ok)
		assert.Equal(t, e.Char, r)
	}
	assert.Len(t, seen, 26+10+18)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "SSTV DE N0CALL", Normalize("SSTV de n0call"))
	assert.Equal(t, "CAFE DEJA VU", Normalize("café déjà vu"))
	assert.Equal(t, "OE1XYZ/P", Normalize("öe1xyz/p"))
}

func TestPatterns(t *testing.T) {
	got := Patterns("de n0#")
	assert.Equal(t, []string{"-..", ".", WordGap, "-.", "-----"}, got)
	assert.Empty(t, Patterns("###"))
}

func TestEncode(t *testing.T) {
	assert.Equal(t, "... ... - ...- / -.. . / -. ----- -.-. .- .-.. .-..", Encode("SSTV de N0CALL"))
	assert.Equal(t, ". / .", Encode("  e   e "))
	assert.Equal(t, "", Encode(""))
}
