package notify

import (
	"context"
	"log/slog"

	"github.com/heartmarshall/focus-backend/internal/domain"
)

// Publisher receives timer events.
type Publisher interface {
	Publish(ctx context.Context, e domain.TimerEvent) error
}

// Multi fans an event out to every publisher. A failing publisher is logged
// and does not stop the others.
type Multi struct {
	publishers []Publisher
	log        *slog.Logger
}

func NewMulti(logger *slog.Logger, publishers ...Publisher) *Multi {
	return &Multi{publishers: publishers, log: logger}
}

// Publish always returns nil.
func (m *Multi) Publish(ctx context.Context, e domain.TimerEvent) error {
	for _, p := range m.publishers {
		if err := p.Publish(ctx, e); err != nil {
			m.log.WarnContext(ctx, "publish timer event",
				slog.String("user_id", e.UserID.String()),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}
