package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewVocabulary_Defaults(t *testing.T) {
	v := NewVocabulary(map[string]*NodeConfig{
		"begin": {Prompts: []string{"hi"}},
	}, "", nil)

	assert.Equal(t, DefaultNodeName, v.DefaultNode)
	node, ok := v.Node("begin")
	assert.True(t, ok)
	assert.Equal(t, "begin", node.Name)
	assert.Equal(t, NodeTypePlain, node.Type)
}

func TestVocabulary_TagUniverse(t *testing.T) {
	v := NewVocabulary(map[string]*NodeConfig{
		"a": {Answers: []AnswerSpec{{Goto: "b", Tags: []string{"cats", "dogs"}}}},
		"b": {Answers: []AnswerSpec{{Goto: "a", Tags: []string{"cats"}}, {Goto: "a"}}},
		"c": {},
	}, "a", nil)

	assert.Equal(t, []string{"cats", "dogs"}, v.TagUniverse())

	// The returned slice is a copy.
	u := v.TagUniverse()
	u[0] = "mutated"
	assert.Equal(t, []string{"cats", "dogs"}, v.TagUniverse())
}

func TestNewVocabulary_MarksExternalLinks(t *testing.T) {
	v := NewVocabulary(map[string]*NodeConfig{
		"a": {Answers: []AnswerSpec{
			{DisplayName: "Site", Goto: "https://example.com/page"},
			{DisplayName: "Next", Goto: "b"},
		}},
	}, "a", nil)

	node, _ := v.Node("a")
	assert.True(t, node.Answers[0].External)
	assert.False(t, node.Answers[1].External)
}

func TestIsExternalLink(t *testing.T) {
	tests := []struct {
		target string
		want   bool
	}{
		{"https://example.com", true},
		{"http://t.me/channel", true},
		{"begin", false},
		{"ask_name", false},
		{"mailto:someone@example.com", false},
		{"/relative/path", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExternalLink(tt.target))
		})
	}
}

func TestTags_Complete(t *testing.T) {
	tags := Tags{"cats": 2}
	full := tags.Complete([]string{"cats", "dogs"})

	assert.Equal(t, Tags{"cats": 2, "dogs": 0}, full)
	assert.Equal(t, Tags{"cats": 2}, tags, "Complete must not mutate the receiver")

	stale := Tags{"cats": 1, "retired": 3}
	assert.Equal(t, Tags{"cats": 1, "dogs": 0}, stale.Complete([]string{"cats", "dogs"}))
	assert.Empty(t, stale.Complete(nil))
}

func TestTags_Add(t *testing.T) {
	tags := Tags{}
	tags.Add("cats", "dogs")
	tags.Add("cats")
	assert.Equal(t, Tags{"cats": 2, "dogs": 1}, tags)
}

func TestSession_Clone(t *testing.T) {
	s := NewSession("42")
	s.CurrentNode = "begin"
	s.Tags.Add("cats")

	c := s.Clone()
	c.Tags.Add("cats")
	c.CurrentNode = "end"

	assert.Equal(t, 1, s.Tags["cats"])
	assert.Equal(t, "begin", s.CurrentNode)
	assert.True(t, s.Started())
	assert.False(t, NewSession("x").Started())
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(&ConfigError{Node: "a", Reason: "no prompt"}))
	assert.True(t, IsRecoverable(&NotFoundError{Node: "a"}))
	assert.False(t, IsRecoverable(ErrSessionNotFound))
}

func TestEvent_AuditKind(t *testing.T) {
	idx := 1
	assert.Equal(t, "variant", Event{Kind: KindText, Choice: &idx}.AuditKind())
	assert.Equal(t, "plain", Event{Kind: KindText}.AuditKind())
	assert.Equal(t, KindLocation, Event{Kind: KindLocation}.AuditKind())
}
