package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/colloquy"
	"github.com/aretw0/colloquy/internal/runtime"
	"github.com/aretw0/colloquy/internal/testutils"
	httpadapter "github.com/aretw0/colloquy/pkg/adapters/http"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBot(t *testing.T, opts ...colloquy.Option) *colloquy.Bot {
	t.Helper()
	opts = append([]colloquy.Option{
		colloquy.WithVocabulary(testutils.MustDecode(t, testutils.PetsVocabulary)),
		colloquy.WithLanguage("english"),
	}, opts...)
	bot, err := colloquy.New("", opts...)
	require.NoError(t, err)
	return bot
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPostEvent_RoundTrip(t *testing.T) {
	h := httpadapter.NewHandler(newBot(t))

	w := post(t, h, `{"conversation_id":"42","text":"hello"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp httpadapter.TurnResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, string(domain.OutcomeStarted), resp.Outcome)
	require.NotNil(t, resp.To)
	assert.Equal(t, "begin", *resp.To)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "Cats or dogs?", resp.Messages[0].Text)
	require.Len(t, resp.Messages[0].Choices, 3)
	assert.Equal(t, "Cats", resp.Messages[0].Choices[0].DisplayName)

	w = post(t, h, `{"conversation_id":"42","choice":0}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp = httpadapter.TurnResponse{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, string(domain.OutcomeAdvanced), resp.Outcome)
	assert.Equal(t, "cats", *resp.To)

	w = post(t, h, `{"conversation_id":"42","kind":"location","location":{"latitude":1,"longitude":2}}`)
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/sessions/42", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var sess httpadapter.SessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&sess))
	assert.Equal(t, "shelter", sess.CurrentNode)
	assert.Equal(t, map[string]int{"likes_cats": 1, "likes_dogs": 0, "pets": 1}, sess.Tags)
}

func TestPostEvent_BadRequests(t *testing.T) {
	h := httpadapter.NewHandler(newBot(t))

	assert.Equal(t, http.StatusBadRequest, post(t, h, `{not json`).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, h, `{"text":"hi"}`).Code)

	long := strings.Repeat("a", httpadapter.MaxInputSize+1)
	assert.Equal(t, http.StatusBadRequest, post(t, h, `{"conversation_id":"1","text":"`+long+`"}`).Code)
}

type failingBot struct {
	httpadapter.Bot
}

func (failingBot) HandleEvent(context.Context, domain.Event) (*runtime.TurnResult, error) {
	return nil, errors.New("dial tcp 10.0.0.1:5432: connection refused")
}

func TestPostEvent_HidesErrorDetail(t *testing.T) {
	h := httpadapter.NewHandler(failingBot{})

	w := post(t, h, `{"conversation_id":"1","text":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.1")
}

type recordingQueue struct {
	events []domain.Event
}

func (q *recordingQueue) Submit(_ context.Context, ev domain.Event) error {
	q.events = append(q.events, ev)
	return nil
}

func TestPostEvent_Queue(t *testing.T) {
	q := &recordingQueue{}
	h := httpadapter.NewHandler(newBot(t), httpadapter.WithQueue(q))

	w := post(t, h, `{"conversation_id":"7","text":"hi\u001b[31m"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, q.events, 1)
	assert.Equal(t, domain.KindText, q.events[0].Kind)
	assert.Equal(t, "hi[31m", q.events[0].Text, "Control characters are stripped")
	assert.NotEmpty(t, q.events[0].MessageID)
}

func TestSessions(t *testing.T) {
	h := httpadapter.NewHandler(newBot(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.Equal(t, http.StatusOK, post(t, h, `{"conversation_id":"9","text":"hi"}`).Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sessions/9", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/9", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetVocabulary(t *testing.T) {
	h := httpadapter.NewHandler(newBot(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/vocabulary", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp httpadapter.VocabularyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "begin", resp.Default)
	assert.Equal(t, []string{"likes_cats", "likes_dogs", "pets"}, resp.Tags)
	require.Len(t, resp.Nodes, 5)
	assert.Equal(t, "begin", resp.Nodes[0].Name)
	assert.True(t, resp.Nodes[0].Answers[3].External)
	assert.False(t, resp.Nodes[0].Answers[1].External)
	require.NotNil(t, resp.Nodes[0].Answers[0].If)
	assert.Equal(t, "likes_cats > 0", *resp.Nodes[0].Answers[0].If)
	require.NotNil(t, resp.Nodes[0].Answers[1].Tags)
	assert.Equal(t, []string{"likes_cats"}, *resp.Nodes[0].Answers[1].Tags)
}

func TestHealthAndInfo(t *testing.T) {
	h := httpadapter.NewHandler(newBot(t), httpadapter.WithVersion("1.2.3\n"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/info", nil))
	assert.JSONEq(t, `{"app":"colloquy-http","version":"1.2.3","api_version":"1.0.0"}`, rec.Body.String())
}

func TestOpenAPIDocument(t *testing.T) {
	swagger, err := httpadapter.GetSwagger()
	require.NoError(t, err)
	require.NoError(t, swagger.Validate(context.Background()))
	assert.Equal(t, "Colloquy HTTP API", swagger.Info.Title)
	assert.NotNil(t, swagger.Paths.Find("/sessions/{id}"))

	h := httpadapter.NewHandler(newBot(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "SubscribeEvents")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "url: '/openapi.yaml'")
}

func TestCORSPreflight(t *testing.T) {
	h := httpadapter.NewHandler(newBot(t))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/events", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSubscribeEvents_StreamsRenders(t *testing.T) {
	streams := httpadapter.NewStreamManager(nil)
	bot := newBot(t, colloquy.WithSender(streams))
	srv := httptest.NewServer(httpadapter.NewHandler(bot, httpadapter.WithStreams(streams)))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?conversation_id=42", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	posted, err := http.Post(srv.URL+"/events", "application/json", strings.NewReader(`{"conversation_id":"42","text":"hi"}`))
	require.NoError(t, err)
	posted.Body.Close()

	var data string
	for lines.Scan() {
		if msg, ok := strings.CutPrefix(lines.Text(), "data: "); ok && msg != "connected" {
			data = msg
			break
		}
	}
	var render domain.RenderRequest
	require.NoError(t, json.Unmarshal([]byte(data), &render))
	assert.Equal(t, "Cats or dogs?", render.Text)
	assert.Equal(t, "42", render.ConversationID)
}

func TestSubscribeEvents_RequiresConversation(t *testing.T) {
	h := httpadapter.NewHandler(newBot(t))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "conversation_id")
}

func TestStreamManager_UnsubscribeTwice(t *testing.T) {
	sm := httpadapter.NewStreamManager(nil)
	ch, cancel := sm.Subscribe("1")
	sm.Broadcast("1", "hello")
	assert.Equal(t, "hello", <-ch)
	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
}
