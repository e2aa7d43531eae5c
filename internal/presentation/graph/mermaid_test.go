package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/colloquy/internal/presentation/graph"
	"github.com/aretw0/colloquy/internal/testutils"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	v := testutils.MustDecode(t, testutils.PetsVocabulary)
	out := graph.GenerateMermaid(v, nil)

	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	for _, want := range []string{
		`begin(("begin"))`,
		`cats["cats"]`,
		`dogs["dogs <br/> ↺ reset"]`,
		`shelter[/"shelter"/]`,
		`begin -- "Cats | cat/kitten +likes_cats" --> cats`,
		`begin -- "Dogs | dog +likes_dogs +pets" --> dogs`,
		`begin -. "Secret <br/> if likes_cats > 0" .-> secret`,
		`begin__link0>"https://example.com"]`,
		`begin -. "Site" .-> begin__link0`,
		`cats -- "<location> +pets" --> shelter`,
		`dogs -- "*" --> begin`,
		`nowhere["nowhere ?"]`,
		`class nowhere missing;`,
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "current")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	v := testutils.MustDecode(t, testutils.PetsVocabulary)
	out := graph.GenerateMermaid(v, &graph.GraphOverlay{
		CurrentNode: "cats",
		Tags:        domain.Tags{"pets": 1, "likes_cats": 2},
	})

	assert.Contains(t, out, "class cats current;")
	assert.Contains(t, out, "%% tags: likes_cats=2, pets=1")
}

func TestGenerateMermaid_Sanitization(t *testing.T) {
	v := domain.NewVocabulary(map[string]*domain.NodeConfig{
		"ask-name": {Prompts: []string{"Name?"}, Answers: []domain.AnswerSpec{
			{DisplayName: `Say "hi"`, Goto: "next.step"},
		}},
		"next.step": {Prompts: []string{"Done"}},
	}, "ask-name", nil)

	out := graph.GenerateMermaid(v, nil)
	assert.Contains(t, out, `ask_name(("ask-name"))`)
	assert.Contains(t, out, `ask_name -- "Say 'hi'" --> next_step`)
	assert.NotContains(t, out, "missing")
}
