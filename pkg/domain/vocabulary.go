package domain

import (
	"net/url"
	"sort"
)

// Node types shipped with the engine. They behave the same today; the type
// is the extension point for kinds that render or match differently.
const (
	NodeTypePlain    = "plain"
	NodeTypeVariant  = "variant"
	NodeTypeLocation = "location"
)

// DefaultNodeName is used when a vocabulary does not declare its default node.
const DefaultNodeName = "begin"

// WildcardWord matches any free-text input.
const WildcardWord = "*"

// Vocabulary is the loaded-once dialog graph. It must not be mutated after
// construction; it is shared by every conversation.
type Vocabulary struct {
	Nodes map[string]*NodeConfig

	// DefaultNode is where new conversations start and where broken ones recover.
	DefaultNode string

	// WrongPhrases is the global fallback for misunderstood input.
	WrongPhrases []string

	tagUniverse []string
}

// NodeConfig is the declarative configuration of a single node.
type NodeConfig struct {
	Name         string
	Type         string
	Prompts      []string
	Photo        string
	WrongPhrases []string
	ResetOnEnter bool
	Answers      []AnswerSpec
}

// AnswerSpec is one outgoing edge of a node.
type AnswerSpec struct {
	// DisplayName is the choice label. Empty means the answer is never rendered.
	DisplayName string
	// Goto is a node name, or a URL when External is set.
	Goto string
	// External marks link answers. They are rendered but never matched.
	External    bool
	Words       []string
	ContentType string
	Tags        []string
	// Condition is a visibility expression over tag counts (e.g. "likes_cats > 0").
	Condition string
}

// NewVocabulary builds a vocabulary and computes its tag universe.
func NewVocabulary(nodes map[string]*NodeConfig, defaultNode string, wrong []string) *Vocabulary {
	if defaultNode == "" {
		defaultNode = DefaultNodeName
	}
	if nodes == nil {
		nodes = make(map[string]*NodeConfig)
	}
	for name, n := range nodes {
		if n.Name == "" {
			n.Name = name
		}
		if n.Type == "" {
			n.Type = NodeTypePlain
		}
		for i := range n.Answers {
			n.Answers[i].External = IsExternalLink(n.Answers[i].Goto)
		}
	}

	v := &Vocabulary{
		Nodes:        nodes,
		DefaultNode:  defaultNode,
		WrongPhrases: wrong,
	}
	v.tagUniverse = collectTags(nodes)
	return v
}

// Node returns the configuration of the named node.
func (v *Vocabulary) Node(name string) (*NodeConfig, bool) {
	n, ok := v.Nodes[name]
	return n, ok
}

// NodeNames returns every node name in sorted order.
func (v *Vocabulary) NodeNames() []string {
	names := make([]string, 0, len(v.Nodes))
	for name := range v.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TagUniverse returns every tag name referenced by any answer, sorted.
func (v *Vocabulary) TagUniverse() []string {
	out := make([]string, len(v.tagUniverse))
	copy(out, v.tagUniverse)
	return out
}

func collectTags(nodes map[string]*NodeConfig) []string {
	seen := make(map[string]struct{})
	for _, n := range nodes {
		for _, a := range n.Answers {
			for _, t := range a.Tags {
				seen[t] = struct{}{}
			}
		}
	}
	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// IsExternalLink reports whether target is an absolute URL (scheme and host).
func IsExternalLink(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
