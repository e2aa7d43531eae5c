package morph_test

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aretw0/colloquy/internal/morph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"hello", "world"}, morph.Tokenize("  Hello,   WORLD! "))
	assert.Equal(t, []string{"don't", "stop"}, morph.Tokenize("«Don't» stop..."))
	assert.Empty(t, morph.Tokenize(" ... !! "))
	assert.Empty(t, morph.Tokenize(""))
}

func TestMatcher_Wildcard(t *testing.T) {
	m := morph.NewMatcher(nil)

	assert.True(t, m.Matches([]string{"*"}, "anything at all"))
	assert.True(t, m.Matches([]string{"nope", "*"}, "x"))
	assert.True(t, m.Matches([]string{"*"}, ""), "The wildcard accepts empty text")
	assert.False(t, m.Matches([]string{"yes"}, ""))
}

func TestMatcher_Literal(t *testing.T) {
	m := morph.NewMatcher(nil)

	assert.True(t, m.Matches([]string{"yes"}, "Yes, please"))
	assert.True(t, m.Matches([]string{"no", "nope"}, "well... nope."))
	assert.False(t, m.Matches([]string{"yes"}, "yesterday"))
	assert.False(t, m.Matches(nil, "yes"))
}

func TestMatcher_UsesBaseForms(t *testing.T) {
	// Stub lemmatizer: strips a trailing "s".
	stub := morph.LemmatizerFunc(func(w string) string { return strings.TrimSuffix(w, "s") })
	m := morph.NewMatcher(stub)

	assert.True(t, m.Matches([]string{"cat"}, "I love cats"))
	assert.True(t, m.Matches([]string{"Cats"}, "one cat"))
	assert.False(t, m.Matches([]string{"dog"}, "I love cats"))
}

func TestMatcher_CachesLemmas(t *testing.T) {
	var calls atomic.Int32
	counting := morph.LemmatizerFunc(func(w string) string {
		calls.Add(1)
		return w
	})
	m := morph.NewMatcher(counting)

	m.Matches([]string{"a"}, "b c")
	first := calls.Load()
	m.Matches([]string{"a"}, "b c")
	assert.Equal(t, first, calls.Load(), "Second pass is served from cache")

	uncached := morph.NewMatcher(counting, morph.WithCacheSize(0))
	before := calls.Load()
	uncached.Matches([]string{"a"}, "b")
	uncached.Matches([]string{"a"}, "b")
	assert.Equal(t, before+4, calls.Load())
}

func TestMatcher_Concurrent(t *testing.T) {
	m := morph.NewMatcher(nil)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, m.Matches([]string{"go"}, "let's go"))
		}()
	}
	wg.Wait()
}

func TestSnowball_Russian(t *testing.T) {
	s, err := morph.NewSnowball("")
	require.NoError(t, err)
	assert.Equal(t, morph.DefaultLanguage, s.Language())

	m := morph.NewMatcher(s)
	assert.True(t, m.Matches([]string{"кошка"}, "Люблю кошки"))
	assert.True(t, m.Matches([]string{"да"}, "Да!"))
	assert.False(t, m.Matches([]string{"собака"}, "люблю кошек"))
}

func TestSnowball_English(t *testing.T) {
	s, err := morph.NewSnowball("English")
	require.NoError(t, err)

	m := morph.NewMatcher(s)
	assert.True(t, m.Matches([]string{"run"}, "I was running"))
	assert.True(t, m.Matches([]string{"cats"}, "my cat"))
	assert.False(t, m.Matches([]string{"dog"}, "my cat"))
}

func TestNewSnowball_Unsupported(t *testing.T) {
	_, err := morph.NewSnowball("klingon")
	var unsupported *morph.UnsupportedLanguageError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "klingon", unsupported.Language)
}
