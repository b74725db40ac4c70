package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/focus-backend/internal/domain"
	"github.com/heartmarshall/focus-backend/pkg/ctxutil"
)

type chatLookup interface {
	ChatIDByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type messageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// ErrQueueFull is returned by Publish when deliveries are backed up.
var ErrQueueFull = errors.New("bot notifier: delivery queue full")

type delivery struct {
	ctx   context.Context
	event domain.TimerEvent
}

// BotNotifier tells users with a linked chat that their timer finished.
// Publish only enqueues; Run performs the chat lookup and the send.
type BotNotifier struct {
	chats  chatLookup
	sender messageSender
	queue  chan delivery
	log    *slog.Logger
}

// NewBotNotifier creates a BotNotifier holding at most queueSize pending
// deliveries.
func NewBotNotifier(logger *slog.Logger, chats chatLookup, sender messageSender, queueSize int) *BotNotifier {
	if queueSize < 1 {
		queueSize = 1
	}
	return &BotNotifier{
		chats:  chats,
		sender: sender,
		queue:  make(chan delivery, queueSize),
		log:    logger.With("notifier", "bot"),
	}
}

// Publish queues the completion message without waiting for the chat API.
// Completions made from the chat itself are skipped: the bot already
// answered those.
func (n *BotNotifier) Publish(ctx context.Context, e domain.TimerEvent) error {
	if ctxutil.SourceFromCtx(ctx) == ctxutil.SourceBot {
		return nil
	}

	select {
	case n.queue <- delivery{ctx: context.WithoutCancel(ctx), event: e}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run delivers queued messages until ctx is cancelled. Failures are logged.
func (n *BotNotifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d := <-n.queue:
			if err := n.deliver(d.ctx, d.event); err != nil {
				n.log.WarnContext(d.ctx, "completion not delivered",
					slog.String("user_id", d.event.UserID.String()),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// deliver sends the message for e. Users without a linked chat are skipped
// silently.
func (n *BotNotifier) deliver(ctx context.Context, e domain.TimerEvent) error {
	chatID, err := n.chats.ChatIDByUser(ctx, e.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("bot notifier: %w", err)
	}

	if err := n.sender.SendMessage(ctx, chatID, CompletionMessage(e)); err != nil {
		return fmt.Errorf("bot notifier: %w", err)
	}

	n.log.DebugContext(ctx, "completion sent",
		slog.String("user_id", e.UserID.String()),
		slog.Int64("chat_id", chatID),
	)
	return nil
}

// CompletionMessage renders a short plain-text notice for e.
func CompletionMessage(e domain.TimerEvent) string {
	var msg string
	switch e.Mode {
	case domain.TimerModeWork:
		msg = "Focus session complete!"
		if !e.FocusTarget.IsGeneral() {
			msg = fmt.Sprintf("Focus session on %s complete!", e.FocusTarget)
		}
	default:
		msg = "Break is over."
	}

	switch e.NextMode {
	case domain.TimerModeLongBreak:
		return msg + " Time for a long break."
	case domain.TimerModeShortBreak:
		return msg + " Time for a short break."
	default:
		return msg + " Ready to focus again?"
	}
}
