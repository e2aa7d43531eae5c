package runtime

import (
	"fmt"

	"github.com/aretw0/colloquy/pkg/domain"
)

// Resolver turns node names into Nodes.
type Resolver struct {
	vocab    *domain.Vocabulary
	registry *Registry
	env      *NodeEnv
}

// NewResolver creates a resolver over a vocabulary.
func NewResolver(vocab *domain.Vocabulary, registry *Registry, matcher *AnswerMatcher, picker *Picker) *Resolver {
	return &Resolver{
		vocab:    vocab,
		registry: registry,
		env: &NodeEnv{
			GlobalWrong: vocab.WrongPhrases,
			Matcher:     matcher,
			Picker:      picker,
		},
	}
}

// Resolve returns a *domain.NotFoundError for unknown names and a
// *domain.ConfigError for types without a registered constructor.
func (r *Resolver) Resolve(name string) (Node, error) {
	cfg, ok := r.vocab.Node(name)
	if !ok || cfg == nil {
		return nil, &domain.NotFoundError{Node: name}
	}
	factory, ok := r.registry.Lookup(cfg.Type)
	if !ok {
		return nil, &domain.ConfigError{Node: name, Reason: fmt.Sprintf("unknown node type %q", cfg.Type)}
	}
	return factory(cfg, r.env), nil
}

// Vocabulary returns the vocabulary being resolved.
func (r *Resolver) Vocabulary() *domain.Vocabulary {
	return r.vocab
}
