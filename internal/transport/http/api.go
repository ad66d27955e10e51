package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/logging"
	"go.uber.org/zap"
)

// API serves read-only JSON views over the performance log.
type API struct {
	service *app.QuizService
	logger  *zap.Logger
}

func NewAPI(service *app.QuizService, logger *zap.Logger) *API {
	return &API{service: service, logger: logging.OrNop(logger)}
}

func (a *API) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	standings, err := a.service.Standings(r.Context())
	if err != nil {
		a.logger.Error("leaderboard query failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorPayload{Message: "performance log unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, standings)
}

func (a *API) HandleUserHistory(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.PathValue("username"))
	if username == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "username is required", Warning: true})
		return
	}
	stats, err := a.service.UserStats(r.Context(), username)
	if err != nil {
		a.logger.Error("history query failed", zap.String("username", username), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorPayload{Message: "performance log unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// NewRouter wires the websocket flow, JSON endpoints and health check.
func NewRouter(service *app.QuizService, logger *zap.Logger) http.Handler {
	ws := NewWSHandler(service, logger)
	api := NewAPI(service, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", ws.ServeWS)
	mux.HandleFunc("GET /api/leaderboard", api.HandleLeaderboard)
	mux.HandleFunc("GET /api/users/{username}/history", api.HandleUserHistory)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
