package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires REST and websocket routes.
func NewRouter(h *Handler, ws *WSHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", userIDHeader, userNameHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)

	r.Route("/quizzes/{quizId}", func(r chi.Router) {
		r.Get("/", h.GetQuiz)
		r.Post("/attempts", h.StartQuiz)
	})
	r.Route("/attempts/{attemptId}", func(r chi.Router) {
		r.Get("/", h.GetAttempt)
		r.Post("/answers", h.AnswerQuestion)
		r.Post("/finish", h.FinishQuiz)
		r.Get("/result", h.GetResult)
	})
	r.Get("/leaderboard", h.GetLeaderboard)
	return r
}
