package word

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin(t *testing.T) {
	t.Parallel()

	l := Builtin()
	require.NotNil(t, l)
	assert.Greater(t, l.Len(), 300)

	words := l.Words()
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		assert.False(t, seen[w], "duplicate word %q", w)
		seen[w] = true
	}
	assert.True(t, seen["pingvin"])
	assert.True(t, seen["ö"])
}

func TestNewList_DedupAndTrim(t *testing.T) {
	t.Parallel()

	l, err := NewList([]string{" pizza ", "pizza", "", "taco"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pizza", "taco"}, l.Words())

	_, err = NewList([]string{"  ", ""})
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestPickRandomWord(t *testing.T) {
	t.Parallel()

	l, err := NewList([]string{"a", "b", "c"})
	require.NoError(t, err)

	l.intN = func(n int) int { return n - 1 }
	assert.Equal(t, "c", l.PickRandomWord())

	l.intN = func(int) int { return 0 }
	assert.Equal(t, "a", l.PickRandomWord())
}

func TestPickRandomWord_AlwaysFromList(t *testing.T) {
	t.Parallel()

	l := Builtin()
	all := make(map[string]bool)
	for _, w := range l.Words() {
		all[w] = true
	}
	for range 200 {
		assert.True(t, all[l.PickRandomWord()])
	}
}

func TestParse_Formats(t *testing.T) {
	t.Parallel()

	flat, err := Parse([]byte(`[ost, kaffe, ost]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"ost", "kaffe"}, flat.Words())

	grouped, err := Parse([]byte("food: [ost]\nplaces: [park, skog]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"ost", "park", "skog"}, grouped.Words())

	_, err = Parse([]byte(`just a string`))
	assert.Error(t, err)

	_, err = Parse([]byte(``))
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	_, err = Parse([]byte("food: {a: b}\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	l, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Builtin().Len(), l.Len())

	path := filepath.Join(t.TempDir(), "words.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- sol\n- måne\n"), 0o600))
	l, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"sol", "måne"}, l.Words())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
