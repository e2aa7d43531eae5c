package colloquy_test

import (
	"bytes"
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/colloquy"
	"github.com/aretw0/colloquy/internal/testutils"
	"github.com/aretw0/colloquy/pkg/adapters/memory"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeVocabulary(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestNew_LoadsFile(t *testing.T) {
	bot, err := colloquy.New(writeVocabulary(t, testutils.PetsVocabulary))
	require.NoError(t, err)

	assert.Equal(t, "voc.yaml", bot.Name)
	assert.Equal(t, "begin", bot.Vocabulary().DefaultNode)
	assert.Equal(t, []string{"location", "plain", "variant"}, bot.NodeTypes())
}

func TestNew_Errors(t *testing.T) {
	_, err := colloquy.New("")
	assert.Error(t, err)

	_, err = colloquy.New(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = colloquy.New(writeVocabulary(t, "nodes:\n  begin:\n    type: teleport\n    q: hi"))
	var cfgErr *domain.ConfigError
	assert.ErrorAs(t, err, &cfgErr, "Unknown node types are rejected at load")

	_, err = colloquy.New("", colloquy.WithVocabulary(testutils.MustDecode(t, testutils.PetsVocabulary)), colloquy.WithLanguage("klingon"))
	assert.Error(t, err)
}

func TestBot_SendsRenders(t *testing.T) {
	var sent []domain.RenderRequest
	sender := ports.SenderFunc(func(_ context.Context, req domain.RenderRequest) error {
		sent = append(sent, req)
		return nil
	})
	audit := memory.NewAuditLog()

	bot, err := colloquy.New("",
		colloquy.WithVocabulary(testutils.MustDecode(t, testutils.PetsVocabulary)),
		colloquy.WithSender(sender),
		colloquy.WithAuditLog(audit),
		colloquy.WithRegistrar(audit),
		colloquy.WithLanguage("english"),
		colloquy.WithRand(rand.New(rand.NewPCG(1, 1))),
	)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = bot.HandleEvent(ctx, testutils.Text("42", "hi"))
	require.NoError(t, err)
	res, err := bot.HandleEvent(ctx, testutils.Text("42", "I like kittens"))
	require.NoError(t, err)
	assert.Equal(t, "cats", res.To)

	require.Len(t, sent, 2)
	assert.Equal(t, "Cats or dogs?", sent[0].Text)
	assert.Equal(t, "42", sent[1].ConversationID)
	assert.True(t, audit.Registered("42"))

	tags, err := bot.Tags(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 1, tags["likes_cats"])
	assert.Contains(t, tags, "pets")

	ids, err := bot.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, ids)

	require.NoError(t, bot.Reset(ctx, "42"))
	_, err = bot.Session(ctx, "42")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestBot_SenderErrorsPropagate(t *testing.T) {
	bot, err := colloquy.New("",
		colloquy.WithVocabulary(testutils.MustDecode(t, testutils.PetsVocabulary)),
		colloquy.WithSender(ports.SenderFunc(func(context.Context, domain.RenderRequest) error {
			return errors.New("network down")
		})),
	)
	require.NoError(t, err)

	res, err := bot.HandleEvent(context.Background(), testutils.Text("42", "hi"))
	assert.ErrorContains(t, err, "network down")
	require.NotNil(t, res, "The turn itself completed")
	assert.Equal(t, "begin", res.To)
}

func TestBot_CustomLemmatizerAndHooks(t *testing.T) {
	entered := 0
	bot, err := colloquy.New("",
		colloquy.WithVocabulary(testutils.MustDecode(t, testutils.PetsVocabulary)),
		colloquy.WithLemmatizer(lemmaFunc(func(w string) string {
			if w == "puppy" {
				return "dog"
			}
			return w
		})),
		colloquy.WithLifecycleHooks(domain.LifecycleHooks{
			OnNodeEnter: func(context.Context, *domain.NodeEvent) { entered++ },
		}),
	)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = bot.HandleEvent(ctx, testutils.Text("1", "hi"))
	require.NoError(t, err)
	res, err := bot.HandleEvent(ctx, testutils.Text("1", "a puppy"))
	require.NoError(t, err)
	assert.Equal(t, "dogs", res.To)
	assert.Equal(t, 2, entered)
}

func TestBot_Validate(t *testing.T) {
	bot, err := colloquy.New("", colloquy.WithVocabulary(testutils.MustDecode(t, testutils.PetsVocabulary)))
	require.NoError(t, err)

	report := bot.Validate()
	assert.Contains(t, report.Errors()[0].String(), "nowhere", "The fixture has one dangling goto")
}

type lemmaFunc func(string) string

func (f lemmaFunc) Lemma(w string) string { return f(w) }

func TestRunner(t *testing.T) {
	bot, err := colloquy.New("",
		colloquy.WithVocabulary(testutils.MustDecode(t, testutils.PetsVocabulary)),
		colloquy.WithLanguage("english"),
	)
	require.NoError(t, err)

	var out bytes.Buffer
	r := colloquy.NewRunner()
	r.Input = strings.NewReader("1\nhuh\n/location 55.7, 37.6\n3\nquit\n")
	r.Output = &out
	r.Headless = true

	require.NoError(t, r.Run(context.Background(), bot))

	got := out.String()
	assert.Contains(t, got, "Cats or dogs?")
	assert.Contains(t, got, "  1) Cats")
	assert.Contains(t, got, "  3) Site <https://example.com>")
	assert.Contains(t, got, "Meow. Where are you?")
	assert.Contains(t, got, "Send a location please.")
	assert.Contains(t, got, "A shelter is near.")
	assert.Contains(t, got, "Bye!")

	s, err := bot.Session(context.Background(), "console")
	require.NoError(t, err)
	assert.Equal(t, "shelter", s.CurrentNode, "3 is out of range and is sent as text")
}

func TestRunner_RequiresIO(t *testing.T) {
	bot, err := colloquy.New("", colloquy.WithVocabulary(testutils.MustDecode(t, testutils.PetsVocabulary)))
	require.NoError(t, err)

	assert.Error(t, colloquy.NewRunner().Run(context.Background(), bot))
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, colloquy.Version)
	assert.NotContains(t, colloquy.Version, "\n")
}
