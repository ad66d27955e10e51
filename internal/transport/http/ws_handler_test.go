package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/auth"
	"exam-quiz-service/internal/domain"
	"exam-quiz-service/internal/infra/memory"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestWebSocketQuizFlow(t *testing.T) {
	service, _ := newTestService(t)
	server := httptest.NewServer(NewRouter(service, nil))
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()

	_, payload := readNext(conn, t, "session")
	assert.Equal(t, string(domain.StageLogin), payload["stage"])
	sessionID, _ := payload["sessionId"].(string)
	require.NotEmpty(t, sessionID)

	send(t, conn, "register", map[string]any{"username": "alice", "password": "pw"})
	readNext(conn, t, "notice")

	send(t, conn, "login", map[string]any{"username": "alice", "password": "pw"})
	_, intro := readNext(conn, t, "intro")
	assert.Equal(t, "alice", intro["username"])

	send(t, conn, "start", map[string]any{"packageSize": 25})
	_, quiz := readNext(conn, t, "quiz")
	questions, _ := quiz["questions"].([]any)
	require.Len(t, questions, 1)

	send(t, conn, "answer", map[string]any{"index": 0, "choice": "4"})
	_, answered := readNext(conn, t, "answered")
	assert.EqualValues(t, 1, answered["answered"])
	assert.EqualValues(t, 1, answered["total"])

	send(t, conn, "submit", nil)
	_, results := readNext(conn, t, "results")
	score, _ := results["score"].(map[string]any)
	assert.EqualValues(t, 1, score["correctCount"])
	assert.EqualValues(t, 100, score["percentage"])
	assert.Equal(t, true, results["saved"])
}

func TestWebSocketReportsWarnings(t *testing.T) {
	service, _ := newTestService(t)
	server := httptest.NewServer(NewRouter(service, nil))
	defer server.Close()

	conn := dial(t, server)
	defer conn.Close()
	readNext(conn, t, "session")

	send(t, conn, "login", map[string]any{"username": "ghost", "password": "pw"})
	_, payload := readNext(conn, t, "error")
	assert.Equal(t, true, payload["warning"])

	send(t, conn, "start", map[string]any{"packageSize": 25})
	_, payload = readNext(conn, t, "error")
	assert.Equal(t, true, payload["warning"])

	send(t, conn, "dance", nil)
	readNext(conn, t, "error")
}

func TestWebSocketResume(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	sc := service.NewSessionContext()
	sc, _, err := service.Register(ctx, sc, "bob", "pw")
	require.NoError(t, err)
	sc, _, err = service.Login(ctx, sc, "bob", "pw")
	require.NoError(t, err)
	sc, _, err = service.Start(ctx, sc, 25)
	require.NoError(t, err)

	server := httptest.NewServer(NewRouter(service, nil))
	defer server.Close()
	conn := dial(t, server)
	defer conn.Close()
	readNext(conn, t, "session")

	send(t, conn, "resume", map[string]any{"sessionId": sc.ID})
	_, session := readNext(conn, t, "session")
	assert.Equal(t, sc.ID, session["sessionId"])
	assert.Equal(t, string(domain.StageQuiz), session["stage"])
	readNext(conn, t, "quiz")

	send(t, conn, "resume", map[string]any{"sessionId": "missing"})
	readNext(conn, t, "error")
}

func newTestService(t *testing.T) (*app.QuizService, *memory.PerformanceLog) {
	t.Helper()
	bank := []domain.QuestionRecord{{
		Prompt:  "What is 2 + 2?",
		Options: map[domain.Label]string{domain.LabelA: "4"},
		Correct: domain.LabelA,
	}}
	performance := memory.NewPerformanceLog()
	service := app.NewQuizService(
		memory.NewCredentialStore(),
		performance,
		memory.NewBankRepository(memory.NewStaticBankLoader(bank), time.Minute),
		memory.NewSessionStore(),
		app.Options{Hasher: &auth.BcryptHasher{Cost: bcrypt.MinCost}},
	)
	return service, performance
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload map[string]any) {
	t.Helper()
	msg := map[string]any{"type": typ}
	if payload != nil {
		msg["payload"] = payload
	}
	require.NoError(t, conn.WriteJSON(msg))
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%v)", expect, msg.Type, msg.Payload)
	}
	return msg.Type, msg.Payload
}
