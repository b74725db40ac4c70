// Package bot is the chat front end of the timer engine. The chat platform
// delivers each message to the webhook; the reply is returned in the
// response body.
package bot

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/focus-backend/internal/domain"
	"github.com/heartmarshall/focus-backend/internal/service/pomodoro"
	"github.com/heartmarshall/focus-backend/pkg/ctxutil"
)

// SecretHeader carries the shared webhook secret.
const SecretHeader = "X-Bot-Secret"

const maxUpdateBytes = 1 << 16

type engine interface {
	Start(ctx context.Context, input pomodoro.StartInput) (*domain.TimerSnapshot, error)
	Pause(ctx context.Context) (*domain.TimerSnapshot, error)
	Resume(ctx context.Context) (*domain.TimerSnapshot, error)
	Stop(ctx context.Context) (*domain.FocusSession, error)
	Complete(ctx context.Context, input pomodoro.CompleteInput) (*pomodoro.CompleteResult, error)
	Recover(ctx context.Context) (*domain.TimerSnapshot, error)
	LatestSession(ctx context.Context) (*domain.FocusSession, error)
	RateSession(ctx context.Context, input pomodoro.RateSessionInput) (*domain.FocusSession, error)
}

type chatResolver interface {
	UserIDByChat(ctx context.Context, chatID int64) (uuid.UUID, error)
}

// Handler serves POST /bot/webhook.
type Handler struct {
	engine engine
	chats  chatResolver
	secret []byte
	log    *slog.Logger
}

// NewHandler creates a Handler. An empty secret disables the secret check.
func NewHandler(logger *slog.Logger, eng engine, chats chatResolver, secret string) *Handler {
	return &Handler{
		engine: eng,
		chats:  chats,
		secret: []byte(secret),
		log:    logger.With("handler", "bot"),
	}
}

// Update is the incoming message envelope.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is a chat message.
type Message struct {
	Chat Chat   `json:"chat"`
	Text string `json:"text"`
}

// Chat identifies the conversation.
type Chat struct {
	ID int64 `json:"id"`
}

// Reply is the answer returned to the chat platform.
type Reply struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if len(h.secret) > 0 && subtle.ConstantTimeCompare([]byte(r.Header.Get(SecretHeader)), h.secret) != 1 {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var upd Update
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateBytes)).Decode(&upd); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid update"})
		return
	}
	if upd.Message == nil || upd.Message.Chat.ID == 0 {
		// Edits, joins and other non-message updates need no answer.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	text := h.Handle(r.Context(), upd.Message.Chat.ID, upd.Message.Text)
	writeJSON(w, http.StatusOK, Reply{ChatID: upd.Message.Chat.ID, Text: text})
}

// Handle runs one chat message for chatID and returns the reply text.
func (h *Handler) Handle(ctx context.Context, chatID int64, text string) string {
	cmd, ok := parseCommand(text)
	if !ok || cmd.name == cmdHelp {
		return helpText
	}

	userID, err := h.chats.UserIDByChat(ctx, chatID)
	if errors.Is(err, domain.ErrNotFound) {
		return msgNotLinked
	}
	if err != nil {
		return h.errorText(ctx, err)
	}

	ctx = ctxutil.WithSource(ctxutil.WithUserID(ctx, userID), ctxutil.SourceBot)
	reply, err := h.run(ctx, cmd)
	if err != nil {
		return h.errorText(ctx, err)
	}
	return reply
}

func (h *Handler) run(ctx context.Context, cmd command) (string, error) {
	switch cmd.name {
	case cmdFocus, cmdShort, cmdLong:
		in, err := cmd.startInput()
		if err != nil {
			return "", err
		}
		snap, err := h.engine.Start(ctx, in)
		if err != nil {
			return "", err
		}
		return startedText(*snap), nil

	case cmdPause:
		snap, err := h.engine.Pause(ctx)
		if err != nil {
			return "", err
		}
		return "Paused with " + formatClock(snap.RemainingSeconds) + " left. /resume when ready.", nil

	case cmdResume:
		snap, err := h.engine.Resume(ctx)
		if err != nil {
			return "", err
		}
		return "Resumed. " + formatClock(snap.RemainingSeconds) + " to go.", nil

	case cmdStop:
		session, err := h.engine.Stop(ctx)
		if err != nil {
			return "", err
		}
		if session == nil {
			return msgIdle, nil
		}
		return stoppedText(*session), nil

	case cmdStatus:
		snap, err := h.engine.Recover(ctx)
		if errors.Is(err, domain.ErrNoActiveTimer) {
			return msgIdle, nil
		}
		if err != nil {
			return "", err
		}
		return statusText(*snap), nil

	case cmdDone:
		res, err := h.engine.Complete(ctx, pomodoro.CompleteInput{Rating: cmd.rating})
		if err != nil {
			return "", err
		}
		return completedText(res), nil

	case cmdRate:
		if cmd.rating == nil {
			return "Usage: /rate <1-5>", nil
		}
		latest, err := h.engine.LatestSession(ctx)
		if errors.Is(err, domain.ErrNotFound) {
			return "There is no finished session to rate yet.", nil
		}
		if err != nil {
			return "", err
		}
		if _, err := h.engine.RateSession(ctx, pomodoro.RateSessionInput{SessionID: latest.ID, Rating: *cmd.rating}); err != nil {
			return "", err
		}
		return "Thanks! Rated your last session " + ratingStars(*cmd.rating) + ".", nil
	}

	return helpText, nil
}

func (h *Handler) errorText(ctx context.Context, err error) string {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return "That doesn't look right: " + verr.Errors[0].Field + " " + verr.Errors[0].Message + "."
	case errors.Is(err, domain.ErrAlreadyActive):
		return "A session is already running. Use /stop or /done first."
	case errors.Is(err, domain.ErrNoActiveTimer):
		return msgIdle
	case errors.Is(err, domain.ErrAlreadyPaused):
		return "The timer is already paused. /resume to continue."
	case errors.Is(err, domain.ErrNotPaused):
		return "The timer is not paused."
	case errors.Is(err, domain.ErrConflict):
		return "That session already has a rating."
	case errors.Is(err, domain.ErrPersistenceUnavailable):
		h.log.WarnContext(ctx, "persistence unavailable", slog.String("error", err.Error()))
		return "I can't reach the timer storage right now. Please try again in a moment."
	default:
		h.log.ErrorContext(ctx, "bot command failed", slog.String("error", err.Error()))
		return "Something went wrong. Please try again."
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
