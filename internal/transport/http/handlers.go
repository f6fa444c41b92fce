package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"quiz-attempt-engine/internal/app"
	"quiz-attempt-engine/internal/domain"
)

const (
	userIDHeader   = "X-User-ID"
	userNameHeader = "X-User-Name"
)

// Handler exposes the attempt engine over REST.
type Handler struct {
	attempts    *app.AttemptService
	bank        *app.QuestionBank
	leaderboard *app.LeaderboardService
	logger      *slog.Logger
}

func NewHandler(attempts *app.AttemptService, bank *app.QuestionBank, leaderboard *app.LeaderboardService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{attempts: attempts, bank: bank, leaderboard: leaderboard, logger: logger}
}

type answerPayload struct {
	QuestionID string  `json:"questionId"`
	OptionID   *string `json:"optionId,omitempty"`
	Boolean    *bool   `json:"boolean,omitempty"`
	Text       *string `json:"text,omitempty"`
}

// value picks the single answer field that was sent.
func (p answerPayload) value() (domain.AnswerValue, error) {
	var (
		value domain.AnswerValue
		set   int
	)
	if p.OptionID != nil {
		value, set = domain.OptionAnswer(*p.OptionID), set+1
	}
	if p.Boolean != nil {
		value, set = domain.BoolAnswer(*p.Boolean), set+1
	}
	if p.Text != nil {
		value, set = domain.TextAnswer(*p.Text), set+1
	}
	if set != 1 {
		return nil, domain.ErrInvalidAnswerValue
	}
	return value, nil
}

type answerResult struct {
	QuestionID string `json:"questionId"`
	IsCorrect  bool   `json:"isCorrect"`
}

type errorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.bank.PublicQuiz(r.Context(), chi.URLParam(r, "quizId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) StartQuiz(w http.ResponseWriter, r *http.Request) {
	player, ok := playerFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorPayload{Message: "missing " + userIDHeader, Code: "unauthorized"})
		return
	}
	started, err := h.attempts.StartQuiz(r.Context(), chi.URLParam(r, "quizId"), player)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, started)
}

// ownAttempt resolves the attempt in the URL and checks it belongs to the caller.
func (h *Handler) ownAttempt(w http.ResponseWriter, r *http.Request) (string, bool) {
	player, ok := playerFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorPayload{Message: "missing " + userIDHeader, Code: "unauthorized"})
		return "", false
	}
	attemptID := chi.URLParam(r, "attemptId")
	owner, err := h.attempts.Owner(r.Context(), attemptID)
	if err != nil {
		h.writeError(w, r, err)
		return "", false
	}
	if owner != player.UserID {
		h.writeError(w, r, domain.ErrNotAttemptOwner)
		return "", false
	}
	return attemptID, true
}

func (h *Handler) GetAttempt(w http.ResponseWriter, r *http.Request) {
	attemptID, ok := h.ownAttempt(w, r)
	if !ok {
		return
	}
	view, err := h.attempts.GetAttempt(r.Context(), attemptID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) AnswerQuestion(w http.ResponseWriter, r *http.Request) {
	attemptID, ok := h.ownAttempt(w, r)
	if !ok {
		return
	}
	var payload answerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid answer payload", Code: "bad_request"})
		return
	}
	value, err := payload.value()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	correct, err := h.attempts.AnswerQuestion(r.Context(), attemptID, payload.QuestionID, value)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answerResult{QuestionID: payload.QuestionID, IsCorrect: correct})
}

func (h *Handler) FinishQuiz(w http.ResponseWriter, r *http.Request) {
	attemptID, ok := h.ownAttempt(w, r)
	if !ok {
		return
	}
	result, err := h.attempts.FinishQuiz(r.Context(), attemptID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetResult serves finalized results, including ones only the archive still holds.
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	player, ok := playerFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorPayload{Message: "missing " + userIDHeader, Code: "unauthorized"})
		return
	}
	result, err := h.attempts.Result(r.Context(), chi.URLParam(r, "attemptId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if result.UserID != player.UserID {
		h.writeError(w, r, domain.ErrNotAttemptOwner)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lb, err := h.leaderboard.GetLeaderboard(r.Context(), app.LeaderboardQuery{
		QuizID: q.Get("quizId"),
		UserID: r.Header.Get(userIDHeader),
		Page:   atoiOr(q.Get("page"), 1),
		Limit:  atoiOr(q.Get("limit"), 0),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	writeJSON(w, status, errorPayload{Message: err.Error(), Code: code})
}

// classify maps engine errors to HTTP status and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		return http.StatusNotFound, "quiz_not_found"
	case errors.Is(err, domain.ErrAttemptNotFound):
		return http.StatusNotFound, "attempt_not_found"
	case errors.Is(err, domain.ErrQuestionNotFound):
		return http.StatusNotFound, "question_not_found"
	case errors.Is(err, domain.ErrAttemptAlreadyActive):
		return http.StatusConflict, "attempt_already_active"
	case errors.Is(err, domain.ErrAttemptExpired):
		return http.StatusGone, "attempt_expired"
	case errors.Is(err, domain.ErrAttemptNotActive):
		return http.StatusGone, "attempt_not_active"
	case errors.Is(err, domain.ErrNotAttemptOwner):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrDeadlineNotReached):
		return http.StatusConflict, "deadline_not_reached"
	case errors.Is(err, domain.ErrResultPending):
		return http.StatusConflict, "result_pending"
	case errors.Is(err, domain.ErrInvalidAnswerValue):
		return http.StatusUnprocessableEntity, "invalid_answer_value"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func playerFrom(r *http.Request) (domain.Player, bool) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		return domain.Player{}, false
	}
	name := r.Header.Get(userNameHeader)
	if name == "" {
		name = userID
	}
	return domain.Player{UserID: userID, DisplayName: name}, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func atoiOr(raw string, fallback int) int {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return fallback
}
