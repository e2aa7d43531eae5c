package runtime_test

import (
	"math/rand/v2"
	"testing"

	"github.com/aretw0/colloquy/internal/runtime"
	"github.com/aretw0/colloquy/internal/testutils"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerMatcher_Rules(t *testing.T) {
	m := runtime.NewAnswerMatcher(nil, nil)
	answers := []domain.AnswerSpec{
		{DisplayName: "Docs", Goto: "https://example.com", External: true, Words: []string{"docs"}, ContentType: domain.KindPhoto},
		{Goto: "typed", Words: []string{"yes"}},
		{Goto: "geo", ContentType: domain.KindLocation},
		{DisplayName: "Next", Goto: "next"},
	}

	a, ok := m.Match("n", answers, testutils.Text("1", "oh yes"), nil)
	require.True(t, ok)
	assert.Equal(t, "typed", a.Goto)

	_, ok = m.Match("n", answers, testutils.Text("1", "docs"), nil)
	assert.False(t, ok, "External links never match words")

	_, ok = m.Match("n", answers, domain.Event{ConversationID: "1", Kind: domain.KindPhoto}, nil)
	assert.False(t, ok, "External links never match content type")

	a, ok = m.Match("n", answers, testutils.Location("1", 0, 0), nil)
	require.True(t, ok)
	assert.Equal(t, "geo", a.Goto)

	a, ok = m.Match("n", answers, testutils.Choice("1", 1), nil)
	require.True(t, ok)
	assert.Equal(t, "next", a.Goto, "Unnamed answers are not numbered")

	_, ok = m.Match("n", answers, testutils.Choice("1", 0), nil)
	assert.False(t, ok)

	_, ok = m.Match("n", answers, testutils.Choice("1", 5), nil)
	assert.False(t, ok)
}

func TestAnswerMatcher_ChoiceSkipsWords(t *testing.T) {
	m := runtime.NewAnswerMatcher(nil, nil)
	answers := []domain.AnswerSpec{
		{Goto: "any", Words: []string{"*"}},
		{DisplayName: "Pick", Goto: "picked"},
	}

	a, ok := m.Match("n", answers, testutils.Choice("1", 0), nil)
	require.True(t, ok)
	assert.Equal(t, "picked", a.Goto)
}

func TestAnswerMatcher_FirstMatchWins(t *testing.T) {
	m := runtime.NewAnswerMatcher(nil, nil)
	answers := []domain.AnswerSpec{
		{Goto: "first", Words: []string{"hello"}},
		{Goto: "second", Words: []string{"*"}},
	}
	a, ok := m.Match("n", answers, testutils.Text("1", "hello"), nil)
	require.True(t, ok)
	assert.Equal(t, "first", a.Goto)
}

func TestAnswerMatcher_Visibility(t *testing.T) {
	m := runtime.NewAnswerMatcher(nil, nil)
	tags := domain.Tags{"cats": 1, "dogs": 0}

	assert.True(t, m.Visible("n", &domain.AnswerSpec{}, tags))
	assert.True(t, m.Visible("n", &domain.AnswerSpec{Condition: "cats > 0"}, tags))
	assert.False(t, m.Visible("n", &domain.AnswerSpec{Condition: "dogs"}, tags))
	assert.False(t, m.Visible("n", &domain.AnswerSpec{Condition: "birds > 0"}, tags), "Unknown identifiers hide")
	assert.False(t, m.Visible("n", &domain.AnswerSpec{Condition: "cats / dogs"}, tags), "Division by zero hides")
	assert.False(t, m.Visible("n", &domain.AnswerSpec{Condition: "cats >"}, tags), "Syntax errors hide")

	rendered := m.Rendered("n", []domain.AnswerSpec{
		{DisplayName: "A", Condition: "dogs > 0"},
		{DisplayName: "B"},
		{Words: []string{"x"}},
		{DisplayName: "C", Condition: "cats"},
	}, tags)
	require.Len(t, rendered, 2)
	assert.Equal(t, "B", rendered[0].DisplayName)
	assert.Equal(t, "C", rendered[1].DisplayName)
}

func TestAnswerMatcher_ReturnsCopy(t *testing.T) {
	m := runtime.NewAnswerMatcher(nil, nil)
	answers := []domain.AnswerSpec{{Goto: "x", Words: []string{"*"}}}

	a, ok := m.Match("n", answers, testutils.Text("1", ""), nil)
	require.True(t, ok, "The wildcard accepts empty text")
	a.Goto = "mutated"
	assert.Equal(t, "x", answers[0].Goto)
}

func TestResolver(t *testing.T) {
	v := testutils.MustDecode(t, `
wrong: [global]
nodes:
  begin:
    q: hi
  odd:
    type: odd
    q: hi
  quiet:
    q: [one, two, three]
    wrong: [local]
`)
	r := runtime.NewResolver(v, runtime.NewRegistry(), runtime.NewAnswerMatcher(nil, nil), runtime.NewPicker(nil))

	n, err := r.Resolve("begin")
	require.NoError(t, err)
	assert.Equal(t, domain.NodeTypePlain, n.Type())
	assert.IsType(t, &runtime.PlainNode{}, n)
	phrase, err := n.MisunderstoodPhrase()
	require.NoError(t, err)
	assert.Equal(t, "global", phrase)

	_, err = r.Resolve("missing")
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = r.Resolve("odd")
	var cfgErr *domain.ConfigError
	assert.ErrorAs(t, err, &cfgErr)

	n, err = r.Resolve("quiet")
	require.NoError(t, err)
	req, err := n.RenderPrompt(nil)
	require.NoError(t, err)
	assert.Contains(t, []string{"one", "two", "three"}, req.Text)
	phrase, _ = n.MisunderstoodPhrase()
	assert.Equal(t, "local", phrase)
}

func TestRegistry_Types(t *testing.T) {
	r := runtime.NewRegistry()
	assert.Equal(t, []string{"location", "plain", "variant"}, r.Types())

	_, ok := r.Lookup("variant")
	assert.True(t, ok)
	_, ok = r.Lookup("teleport")
	assert.False(t, ok)
}

func TestPicker_Deterministic(t *testing.T) {
	options := []string{"a", "b", "c", "d"}
	p1 := runtime.NewPicker(rand.New(rand.NewPCG(7, 7)))
	p2 := runtime.NewPicker(rand.New(rand.NewPCG(7, 7)))

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		a, b := p1.Pick(options), p2.Pick(options)
		assert.Equal(t, a, b, "Same seed, same sequence")
		seen[a] = true
	}
	assert.Len(t, seen, 4, "Every option is eventually picked")
	assert.Equal(t, "", p1.Pick(nil))
	assert.Equal(t, "only", p1.Pick([]string{"only"}))
}

func TestAnswerMatcher_RetiredTagsHide(t *testing.T) {
	m := runtime.NewAnswerMatcher(nil, nil)
	stored := domain.Tags{"cats": 1, "retired_tag": 3}
	tags := stored.Complete([]string{"cats"})

	assert.False(t, m.Visible("n", &domain.AnswerSpec{Condition: "retired_tag > 0"}, tags),
		"Tags outside the universe are unknown identifiers")
	assert.True(t, m.Visible("n", &domain.AnswerSpec{Condition: "cats > 0"}, tags))
}
