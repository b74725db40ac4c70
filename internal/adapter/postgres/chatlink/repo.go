// Package chatlink resolves bot chats to users. Creating links belongs to
// the account linking flow and is not done here.
package chatlink

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	postgres "github.com/heartmarshall/focus-backend/internal/adapter/postgres"
)

// Repo reads bot_chat_links.
type Repo struct {
	db postgres.Querier
}

// New creates a new chat link repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

const userIDByChatSQL = `SELECT user_id FROM bot_chat_links WHERE chat_id = $1`

const chatIDByUserSQL = `SELECT chat_id FROM bot_chat_links WHERE user_id = $1`

// UserIDByChat returns the user linked to chatID.
// Returns domain.ErrNotFound if the chat is not linked.
func (r *Repo) UserIDByChat(ctx context.Context, chatID int64) (uuid.UUID, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var userID uuid.UUID
	if err := querier.QueryRow(ctx, userIDByChatSQL, chatID).Scan(&userID); err != nil {
		return uuid.Nil, postgres.MapError(err, "bot chat", chatRef(chatID))
	}

	return userID, nil
}

// ChatIDByUser returns the chat linked to userID.
// Returns domain.ErrNotFound if the user has no linked chat.
func (r *Repo) ChatIDByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var chatID int64
	if err := querier.QueryRow(ctx, chatIDByUserSQL, userID).Scan(&chatID); err != nil {
		return 0, postgres.MapError(err, "bot chat of user", userID)
	}

	return chatID, nil
}

type chatRef int64

func (c chatRef) String() string { return fmt.Sprintf("%d", int64(c)) }
