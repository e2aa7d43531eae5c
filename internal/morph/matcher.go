package morph

import (
	"strings"
	"sync"
	"unicode"
)

// Wildcard matches any input.
const Wildcard = "*"

// DefaultCacheSize bounds how many distinct words the Matcher remembers.
const DefaultCacheSize = 10000

// Matcher decides whether free text mentions any of a set of anchor words.
// Safe for concurrent use.
type Matcher struct {
	lemmatizer Lemmatizer
	limit      int

	mu    sync.RWMutex
	cache map[string]string
}

// Option configures the Matcher.
type Option func(*Matcher)

// WithCacheSize overrides DefaultCacheSize. Zero disables caching.
func WithCacheSize(n int) Option {
	return func(m *Matcher) {
		if n >= 0 {
			m.limit = n
		}
	}
}

// NewMatcher creates a matcher. A nil lemmatizer compares words literally.
func NewMatcher(l Lemmatizer, opts ...Option) *Matcher {
	if l == nil {
		l = Identity
	}
	m := &Matcher{
		lemmatizer: l,
		limit:      DefaultCacheSize,
		cache:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Matches reports whether text shares a base form with any candidate.
// A "*" candidate matches any text, empty text included.
func (m *Matcher) Matches(candidates []string, text string) bool {
	for _, c := range candidates {
		if strings.TrimSpace(c) == Wildcard {
			return true
		}
	}

	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return false
	}
	inputs := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		inputs[m.Lemma(tok)] = struct{}{}
	}

	for _, c := range candidates {
		for _, tok := range Tokenize(c) {
			if _, ok := inputs[m.Lemma(tok)]; ok {
				return true
			}
		}
	}
	return false
}

// Lemma returns the cached base form of an already tokenized word.
func (m *Matcher) Lemma(word string) string {
	m.mu.RLock()
	lemma, ok := m.cache[word]
	m.mu.RUnlock()
	if ok {
		return lemma
	}

	lemma = m.lemmatizer.Lemma(word)

	m.mu.Lock()
	if len(m.cache) < m.limit {
		m.cache[word] = lemma
	}
	m.mu.Unlock()
	return lemma
}

// Tokenize splits text on whitespace, trims punctuation from token edges and
// lowercases. Tokens that are pure punctuation are dropped.
func Tokenize(text string) []string {
	fields := strings.Fields(text)
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if f == "" {
			continue
		}
		out = append(out, strings.ToLower(f))
	}
	return out
}
