// Package vocab loads and validates dialog vocabularies written in YAML.
//
// A vocabulary looks like:
//
//	default: begin
//	wrong: ["Sorry?", "Come again?"]
//	nodes:
//	  begin:
//	    q: Do you like cats?
//	    a:
//	      - name: Yes
//	        goto: cats
//	        words: [yes, sure]
//	        tags: cat_person
//	      - name: Our site
//	        goto: https://example.com
//
// Fields that hold phrases, answers, words or tags accept either a single
// value or a list.
package vocab

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strconv"

	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// document is the top-level YAML shape. Node bodies stay loose until the
// second decoding phase.
type document struct {
	Nodes   map[string]map[string]any `yaml:"nodes"`
	Default string                    `yaml:"default"`
	Wrong   any                       `yaml:"wrong"`
}

type rawNode struct {
	Type  string      `mapstructure:"type"`
	Q     []string    `mapstructure:"q"`
	Photo string      `mapstructure:"photo"`
	Wrong []string    `mapstructure:"wrong"`
	Reset bool        `mapstructure:"reset"`
	A     []rawAnswer `mapstructure:"a"`
}

type rawAnswer struct {
	Name  string   `mapstructure:"name"`
	Goto  string   `mapstructure:"goto"`
	Words []string `mapstructure:"words"`
	Type  string   `mapstructure:"type"`
	Tags  []string `mapstructure:"tags"`
	If    string   `mapstructure:"if"`
}

type options struct {
	nodeTypes []string
	strict    bool
}

// Option configures decoding.
type Option func(*options)

// WithNodeTypes rejects nodes whose type is not in types.
func WithNodeTypes(types ...string) Option {
	return func(o *options) {
		o.nodeTypes = types
	}
}

// WithStrict rejects unknown keys in node and answer bodies.
func WithStrict() Option {
	return func(o *options) {
		o.strict = true
	}
}

// Load reads and decodes a vocabulary file.
func Load(path string, opts ...Option) (*domain.Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary: %w", err)
	}
	return Decode(bytes.NewReader(data), opts...)
}

// Decode parses a vocabulary. Shape problems are reported as *domain.ConfigError.
func Decode(r io.Reader, opts ...Option) (*domain.Vocabulary, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var doc document
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &domain.ConfigError{Reason: "empty vocabulary"}
		}
		return nil, &domain.ConfigError{Reason: fmt.Sprintf("malformed YAML: %v", err)}
	}
	if len(doc.Nodes) == 0 {
		return nil, &domain.ConfigError{Reason: "vocabulary declares no nodes"}
	}

	wrong, err := phrases(doc.Wrong)
	if err != nil {
		return nil, &domain.ConfigError{Reason: fmt.Sprintf("wrong: %v", err)}
	}

	nodes := make(map[string]*domain.NodeConfig, len(doc.Nodes))
	for _, name := range sortedKeys(doc.Nodes) {
		cfg, err := decodeNode(name, doc.Nodes[name], o)
		if err != nil {
			return nil, err
		}
		nodes[name] = cfg
	}
	return domain.NewVocabulary(nodes, doc.Default, wrong), nil
}

func decodeNode(name string, body map[string]any, o options) (*domain.NodeConfig, error) {
	var raw rawNode
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.ComposeDecodeHookFunc(liftScalarHook, scalarToStringHook),
		Result:      &raw,
		ErrorUnused: o.strict,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(body); err != nil {
		return nil, &domain.ConfigError{Node: name, Reason: err.Error()}
	}

	if raw.Type != "" && len(o.nodeTypes) > 0 && !contains(o.nodeTypes, raw.Type) {
		return nil, &domain.ConfigError{Node: name, Reason: fmt.Sprintf("unknown node type %q", raw.Type)}
	}

	cfg := &domain.NodeConfig{
		Name:         name,
		Type:         raw.Type,
		Prompts:      nonEmpty(raw.Q),
		Photo:        raw.Photo,
		WrongPhrases: nonEmpty(raw.Wrong),
		ResetOnEnter: raw.Reset,
		Answers:      make([]domain.AnswerSpec, 0, len(raw.A)),
	}
	for _, a := range raw.A {
		cfg.Answers = append(cfg.Answers, domain.AnswerSpec{
			DisplayName: a.Name,
			Goto:        a.Goto,
			Words:       nonEmpty(a.Words),
			ContentType: a.Type,
			Tags:        nonEmpty(a.Tags),
			Condition:   a.If,
		})
	}
	return cfg, nil
}

// liftScalarHook turns a single value into a one-element list when the
// target is a slice.
func liftScalarHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Slice || data == nil {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Slice, reflect.Array:
		return data, nil
	}
	return []any{data}, nil
}

// scalarToStringHook accepts numbers and booleans where text is expected,
// so `goto: 42` or `q: 3.14` read as written.
func scalarToStringHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch v := data.(type) {
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	}
	return data, nil
}

// phrases decodes the global misunderstood phrase(s).
func phrases(v any) ([]string, error) {
	var out []string
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(liftScalarHook, scalarToStringHook),
		Result:     &out,
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	if err := dec.Decode(v); err != nil {
		return nil, err
	}
	return nonEmpty(out), nil
}

func nonEmpty(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
