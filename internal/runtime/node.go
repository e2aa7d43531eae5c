package runtime

import (
	"strconv"

	"github.com/aretw0/colloquy/pkg/domain"
)

// Node is a resolved vocabulary node.
type Node interface {
	Name() string
	Type() string
	ResetOnEnter() bool

	// RenderPrompt picks a prompt phrase and lists the answers visible under tags.
	RenderPrompt(tags domain.Tags) (domain.RenderRequest, error)

	// MisunderstoodPhrase is said when no answer matches.
	MisunderstoodPhrase() (string, error)

	// MatchAnswer returns the first visible answer accepting ev.
	MatchAnswer(ev domain.Event, tags domain.Tags) (*domain.AnswerSpec, bool)
}

// NodeEnv carries what node implementations share across a vocabulary.
type NodeEnv struct {
	GlobalWrong []string
	Matcher     *AnswerMatcher
	Picker      *Picker
}

// NodeFactory builds a Node from its configuration.
type NodeFactory func(cfg *domain.NodeConfig, env *NodeEnv) Node

// baseNode implements the behaviour shared by every built-in node type.
type baseNode struct {
	cfg *domain.NodeConfig
	env *NodeEnv
}

func (n *baseNode) Name() string       { return n.cfg.Name }
func (n *baseNode) Type() string       { return n.cfg.Type }
func (n *baseNode) ResetOnEnter() bool { return n.cfg.ResetOnEnter }

func (n *baseNode) RenderPrompt(tags domain.Tags) (domain.RenderRequest, error) {
	if len(n.cfg.Prompts) == 0 {
		return domain.RenderRequest{}, &domain.ConfigError{Node: n.cfg.Name, Reason: "no prompt phrase"}
	}

	req := domain.RenderRequest{
		Node:  n.cfg.Name,
		Text:  n.env.Picker.Pick(n.cfg.Prompts),
		Photo: n.cfg.Photo,
	}
	for i, a := range n.env.Matcher.Rendered(n.cfg.Name, n.cfg.Answers, tags) {
		choice := domain.Choice{DisplayName: a.DisplayName, External: a.External}
		if a.External {
			choice.Target = a.Goto
		} else {
			choice.Target = strconv.Itoa(i)
		}
		req.Choices = append(req.Choices, choice)
	}
	return req, nil
}

func (n *baseNode) MisunderstoodPhrase() (string, error) {
	switch {
	case len(n.cfg.WrongPhrases) > 0:
		return n.env.Picker.Pick(n.cfg.WrongPhrases), nil
	case len(n.env.GlobalWrong) > 0:
		return n.env.Picker.Pick(n.env.GlobalWrong), nil
	default:
		return "", &domain.ConfigError{Node: n.cfg.Name, Reason: "no misunderstood phrase"}
	}
}

func (n *baseNode) MatchAnswer(ev domain.Event, tags domain.Tags) (*domain.AnswerSpec, bool) {
	return n.env.Matcher.Match(n.cfg.Name, n.cfg.Answers, ev, tags)
}

// PlainNode is a text prompt with optional choices.
type PlainNode struct{ baseNode }

// VariantNode is a prompt meant to be answered by pressing a choice.
type VariantNode struct{ baseNode }

// LocationNode is a prompt expecting a shared location.
type LocationNode struct{ baseNode }

// NewBaseNode returns a node with the built-in behaviour. Custom node types
// that only rewrite their configuration can build on it.
func NewBaseNode(cfg *domain.NodeConfig, env *NodeEnv) Node {
	return &PlainNode{baseNode{cfg: cfg, env: env}}
}

func newPlainNode(cfg *domain.NodeConfig, env *NodeEnv) Node {
	return &PlainNode{baseNode{cfg: cfg, env: env}}
}

func newVariantNode(cfg *domain.NodeConfig, env *NodeEnv) Node {
	return &VariantNode{baseNode{cfg: cfg, env: env}}
}

func newLocationNode(cfg *domain.NodeConfig, env *NodeEnv) Node {
	return &LocationNode{baseNode{cfg: cfg, env: env}}
}
