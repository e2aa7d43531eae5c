// Package morph compares words by their base forms.
package morph

import (
	"fmt"
	"strings"

	"github.com/kljensen/snowball"
)

// DefaultLanguage is the stemmer language used when none is configured.
const DefaultLanguage = "russian"

// Languages lists the stemmer languages accepted by NewSnowball.
var Languages = []string{"english", "french", "hungarian", "norwegian", "russian", "spanish", "swedish"}

// Lemmatizer reduces a lowercase word to a base form.
// Two words are considered the same when their base forms are equal.
type Lemmatizer interface {
	Lemma(word string) string
}

// LemmatizerFunc adapts a function to Lemmatizer.
type LemmatizerFunc func(string) string

func (f LemmatizerFunc) Lemma(word string) string {
	return f(word)
}

// Identity compares lowercase words literally.
var Identity = LemmatizerFunc(func(w string) string { return w })

// Snowball stems words with the Snowball algorithm for one language.
type Snowball struct {
	language string
}

// NewSnowball returns a stemmer for language. An empty language selects DefaultLanguage.
func NewSnowball(language string) (*Snowball, error) {
	if language == "" {
		language = DefaultLanguage
	}
	language = strings.ToLower(language)
	for _, l := range Languages {
		if l == language {
			return &Snowball{language: language}, nil
		}
	}
	return nil, &UnsupportedLanguageError{Language: language}
}

// Language returns the configured stemmer language.
func (s *Snowball) Language() string {
	return s.language
}

// Lemma returns the stem of word. Words the stemmer rejects are returned unchanged.
func (s *Snowball) Lemma(word string) string {
	if s.language == "russian" {
		word = strings.ReplaceAll(word, "ё", "е")
	}
	stem, err := snowball.Stem(word, s.language, true)
	if err != nil || stem == "" {
		return word
	}
	return stem
}

// UnsupportedLanguageError is returned for languages without a stemmer.
type UnsupportedLanguageError struct {
	Language string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported stemmer language %q (supported: %s)", e.Language, strings.Join(Languages, ", "))
}
