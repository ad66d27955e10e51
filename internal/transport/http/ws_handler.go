package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/domain"
	"exam-quiz-service/internal/logging"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSHandler drives one quiz flow per websocket connection. The connection
// owns the session context and threads it through every service call.
type WSHandler struct {
	service  *app.QuizService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		logger:  logging.OrNop(logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type credentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type packagePayload struct {
	PackageSize int `json:"packageSize"`
}

type answerPayload struct {
	Index  int    `json:"index"`
	Choice string `json:"choice"`
}

type resumePayload struct {
	SessionID string `json:"sessionId"`
}

type sessionPayload struct {
	SessionID string       `json:"sessionId"`
	Stage     domain.Stage `json:"stage"`
}

type answeredPayload struct {
	Index    int    `json:"index"`
	Choice   string `json:"choice"`
	Answered int    `json:"answered"`
	Total    int    `json:"total"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	Warning bool   `json:"warning"`
}

// ServeWS upgrades the request and processes inbound actions until the client
// disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := r.Context()
	sc := h.service.NewSessionContext()
	if err := conn.WriteJSON(outboundMessage{Type: "session", Payload: sessionPayload{SessionID: sc.ID, Stage: sc.Stage}}); err != nil {
		return
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var replies []outboundMessage
		sc, replies = h.dispatch(ctx, sc, inbound)
		for _, msg := range replies {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Warn("ws write error", zap.String("session_id", sc.ID), zap.Error(err))
				return
			}
		}
	}
	h.logger.Debug("ws closed", zap.String("session_id", sc.ID), zap.String("username", sc.Username))
}

func (h *WSHandler) dispatch(ctx context.Context, sc domain.SessionContext, in inboundMessage) (domain.SessionContext, []outboundMessage) {
	var (
		next = sc
		out  outboundMessage
		err  error
	)
	switch in.Type {
	case "register", "login":
		var p credentialsPayload
		if err := decode(in.Payload, &p); err != nil {
			return sc, []outboundMessage{errorMessage(err)}
		}
		if in.Type == "register" {
			var notice app.Notice
			next, notice, err = h.service.Register(ctx, sc, p.Username, p.Password)
			out = outboundMessage{Type: "notice", Payload: notice}
		} else {
			var intro app.IntroView
			next, intro, err = h.service.Login(ctx, sc, p.Username, p.Password)
			out = outboundMessage{Type: "intro", Payload: intro}
		}
	case "start", "retry":
		var p packagePayload
		if err := decode(in.Payload, &p); err != nil {
			return sc, []outboundMessage{errorMessage(err)}
		}
		var view app.QuizView
		if in.Type == "start" {
			next, view, err = h.service.Start(ctx, sc, p.PackageSize)
		} else {
			next, view, err = h.service.Retry(ctx, sc, p.PackageSize)
		}
		out = outboundMessage{Type: "quiz", Payload: view}
	case "answer":
		var p answerPayload
		if err := decode(in.Payload, &p); err != nil {
			return sc, []outboundMessage{errorMessage(err)}
		}
		next, err = h.service.Answer(ctx, sc, p.Index, p.Choice)
		if err == nil {
			out = outboundMessage{Type: "answered", Payload: answeredPayload{
				Index:    p.Index,
				Choice:   p.Choice,
				Answered: len(next.Quiz.Answers),
				Total:    len(next.Quiz.Questions),
			}}
		}
	case "submit":
		var results app.ResultsView
		next, results, err = h.service.Submit(ctx, sc)
		out = outboundMessage{Type: "results", Payload: results}
	case "logout":
		next = h.service.Logout(ctx, sc)
		out = outboundMessage{Type: "session", Payload: sessionPayload{SessionID: next.ID, Stage: next.Stage}}
	case "resume":
		var p resumePayload
		if err := decode(in.Payload, &p); err != nil {
			return sc, []outboundMessage{errorMessage(err)}
		}
		next, err = h.service.Resume(ctx, p.SessionID)
		if err != nil {
			next = sc
		} else {
			return next, []outboundMessage{
				{Type: "session", Payload: sessionPayload{SessionID: next.ID, Stage: next.Stage}},
				{Type: viewType(next.Stage), Payload: h.service.View(next)},
			}
		}
	default:
		return sc, []outboundMessage{{Type: "error", Payload: errorPayload{Message: "unsupported message type", Warning: true}}}
	}

	if err != nil {
		return next, []outboundMessage{errorMessage(err)}
	}
	return next, []outboundMessage{out}
}

func viewType(stage domain.Stage) string {
	switch stage {
	case domain.StageIntro, domain.StageResults:
		return "intro"
	case domain.StageQuiz:
		return "quiz"
	}
	return "notice"
}

func decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.Join(domain.ErrInvalidInput, err)
	}
	return nil
}

func errorMessage(err error) outboundMessage {
	return outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error(), Warning: domain.IsWarning(err)}}
}
