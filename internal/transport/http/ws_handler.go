package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"quiz-attempt-engine/internal/app"
	"quiz-attempt-engine/internal/domain"
)

// WSHandler streams one attempt: countdown ticks, expiry, and answer results.
type WSHandler struct {
	service  *app.AttemptService
	tick     time.Duration
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AttemptService, tick time.Duration, logger *slog.Logger) *WSHandler {
	if tick <= 0 {
		tick = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
		tick:    tick,
		logger:  logger,
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

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type tickPayload struct {
	RemainingSeconds int    `json:"remainingSeconds"`
	Remaining        string `json:"remaining"`
}

// ServeWS upgrades HTTP requests to websockets bound to one attempt.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	attemptID := r.URL.Query().Get("attemptId")
	userID := r.URL.Query().Get("userId")
	if attemptID == "" || userID == "" {
		http.Error(w, "missing attemptId or userId", http.StatusBadRequest)
		return
	}

	view, err := h.service.GetAttempt(r.Context(), attemptID)
	if err != nil {
		status, _ := classify(err)
		http.Error(w, err.Error(), status)
		return
	}
	if view.UserID != userID {
		http.Error(w, "attempt belongs to another user", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	watchDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", slog.Any("error", err))
				return
			}
		}
	}()

	push := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-ctx.Done():
		}
	}

	push(outboundMessage[any]{Type: "attempt", Payload: view})

	// The clock is rebuilt from the stored deadline; nothing is counted locally.
	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	if view.Status == domain.StatusInProgress {
		clock := app.NewClock(view.ExpiresAt)
		go func() {
			defer close(watchDone)
			clock.Watch(watchCtx, h.tick, h.service.Now,
				func(remaining int) {
					push(outboundMessage[any]{Type: "tick", Payload: tickPayload{
						RemainingSeconds: remaining,
						Remaining:        app.FormatRemaining(remaining),
					}})
				},
				func() {
					result, err := h.service.ExpireAttempt(ctx, attemptID)
					if err != nil {
						push(errorMessage(err))
						return
					}
					push(outboundMessage[any]{Type: "expired", Payload: result})
				},
			)
		}()
	} else {
		close(watchDone)
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload", Code: "bad_request"}})
				continue
			}
			value, err := payload.value()
			if err != nil {
				push(errorMessage(err))
				continue
			}
			correct, err := h.service.AnswerQuestion(ctx, attemptID, payload.QuestionID, value)
			if err != nil {
				push(errorMessage(err))
				continue
			}
			push(outboundMessage[any]{Type: "answerResult", Payload: answerResult{QuestionID: payload.QuestionID, IsCorrect: correct}})
		case "finish":
			result, err := h.service.FinishQuiz(ctx, attemptID)
			if err != nil {
				push(errorMessage(err))
				continue
			}
			stopWatch()
			push(outboundMessage[any]{Type: "finished", Payload: result})
		default:
			push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type", Code: "bad_request"}})
		}
	}

	cancel()
	<-watchDone
	close(send)
	<-writerDone
}

func errorMessage(err error) outboundMessage[any] {
	_, code := classify(err)
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error(), Code: code}}
}
