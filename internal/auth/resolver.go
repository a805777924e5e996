package auth

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/LedyBacer/bs-budget-tracker-backend/internal/core"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/log"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/storage"
)

// Principal is the acting identity a request runs as: always a user,
// plus the group chat when the assertion came from a group context.
type Principal struct {
	User core.User
	Chat *core.Chat
}

// Owner is the owning key subsequent authorization is scoped by: the
// chat when a group context exists, the user otherwise. Exactly one
// side is ever set.
func (p Principal) Owner() core.Owner {
	if p.Chat != nil {
		return core.OwnerChat(p.Chat.ID)
	}
	return core.OwnerUser(p.User.ID)
}

// Resolver validates identity assertions and materializes principals,
// refreshing the backing User/Chat rows as a side effect.
type Resolver struct {
	botToken string
	ttl      time.Duration
	logger   *log.Logger
	now      func() time.Time
}

func NewResolver(botToken string, ttl time.Duration, logger *log.Logger) *Resolver {
	return &Resolver{
		botToken: botToken,
		ttl:      ttl,
		logger:   logger.WithComponent(log.ComponentAuth),
		now:      time.Now,
	}
}

// Resolve validates the raw assertion and derives the principal. The
// user upsert is fatal to the request; chat refresh failures only log.
// Runs on the request's transaction so its writes commit or roll back
// with everything else.
func (r *Resolver) Resolve(ctx context.Context, q *storage.Queries, raw string) (Principal, error) {
	data, err := ParseInitData(raw, r.botToken, r.ttl, r.now())
	if err != nil {
		return Principal{}, err
	}
	if data.User == nil || data.User.ID == 0 {
		return Principal{}, core.ErrMissingUser
	}

	user, err := r.refreshUser(ctx, q, *data.User)
	if err != nil {
		return Principal{}, fmt.Errorf("refresh user %d: %w", data.User.ID, err)
	}

	principal := Principal{User: user}

	switch {
	case data.Chat != nil && core.IsGroupChatType(data.Chat.Type):
		chat := core.Chat{ID: data.Chat.ID, Type: data.Chat.Type, Title: data.Chat.Title}
		if refreshed, err := r.refreshChat(ctx, q, chat, true); err != nil {
			// The group stays the request context either way.
			r.logger.WarnContext(ctx, "Chat refresh failed, continuing with asserted values",
				log.FieldChatID, chat.ID, log.FieldError, err)
			principal.Chat = &chat
		} else {
			principal.Chat = &refreshed
		}

	case data.ChatInstance != "" && core.IsGroupChatType(data.ChatType):
		// Degraded path: the platform told us we are in a group but
		// sent no chat object. Derive a stable synthetic id from the
		// chat_instance token; never overwrite an existing placeholder.
		chatID := syntheticChatID(data.ChatInstance)
		chat := core.Chat{
			ID:    chatID,
			Type:  core.ChatTypeGroup,
			Title: fmt.Sprintf("Group Chat %d", chatID),
		}
		if refreshed, err := r.refreshChat(ctx, q, chat, false); err != nil {
			r.logger.WarnContext(ctx, "Synthetic chat refresh failed, continuing with asserted values",
				log.FieldChatID, chat.ID, log.FieldError, err)
			principal.Chat = &chat
		} else {
			principal.Chat = &refreshed
		}
	}

	return principal, nil
}

// refreshUser creates the user on first sight and overwrites mutable
// fields only when the asserted values differ, so a repeat resolve is
// a pure read.
func (r *Resolver) refreshUser(ctx context.Context, q *storage.Queries, info UserInfo) (core.User, error) {
	incoming := core.User{
		ID:           info.ID,
		FirstName:    info.FirstName,
		LastName:     info.LastName,
		Username:     info.Username,
		LanguageCode: info.LanguageCode,
		PhotoURL:     info.PhotoURL,
		IsPremium:    info.IsPremium,
	}

	stored, err := q.GetUser(ctx, info.ID)
	if errors.Is(err, core.ErrNotFound) {
		now := r.now()
		incoming.CreatedAt = now
		incoming.UpdatedAt = now
		if err := q.InsertUser(ctx, incoming); err != nil {
			return core.User{}, err
		}
		r.logger.InfoContext(ctx, "User created", log.FieldUserID, incoming.ID)
		return incoming, nil
	}
	if err != nil {
		return core.User{}, err
	}

	if !userFieldsEqual(stored, incoming) {
		incoming.CreatedAt = stored.CreatedAt
		incoming.UpdatedAt = r.now()
		if err := q.UpdateUser(ctx, incoming); err != nil {
			return core.User{}, err
		}
		r.logger.DebugContext(ctx, "User refreshed", log.FieldUserID, incoming.ID)
		return incoming, nil
	}

	return stored, nil
}

// refreshChat mirrors refreshUser for group chats. With updateIfExists
// false an existing row is left untouched (placeholder titles must not
// churn).
func (r *Resolver) refreshChat(ctx context.Context, q *storage.Queries, chat core.Chat, updateIfExists bool) (core.Chat, error) {
	stored, err := q.GetChat(ctx, chat.ID)
	if errors.Is(err, core.ErrNotFound) {
		now := r.now()
		chat.CreatedAt = now
		chat.UpdatedAt = now
		if err := q.InsertChat(ctx, chat); err != nil {
			return core.Chat{}, err
		}
		r.logger.InfoContext(ctx, "Chat created", log.FieldChatID, chat.ID, "chat_type", chat.Type)
		return chat, nil
	}
	if err != nil {
		return core.Chat{}, err
	}

	if updateIfExists && (stored.Type != chat.Type || stored.Title != chat.Title) {
		chat.CreatedAt = stored.CreatedAt
		chat.UpdatedAt = r.now()
		if err := q.UpdateChat(ctx, chat); err != nil {
			return core.Chat{}, err
		}
		return chat, nil
	}

	return stored, nil
}

func userFieldsEqual(a, b core.User) bool {
	return a.FirstName == b.FirstName &&
		a.LastName == b.LastName &&
		a.Username == b.Username &&
		a.LanguageCode == b.LanguageCode &&
		a.PhotoURL == b.PhotoURL &&
		a.IsPremium == b.IsPremium
}

// syntheticChatID folds a chat_instance token into a ten-digit numeric
// id the chats table can hold. Collisions are possible at scale; this
// is a best-effort stand-in for a real platform chat id.
func syntheticChatID(chatInstance string) int64 {
	sum := md5.Sum([]byte(chatInstance))
	n := new(big.Int)
	n.SetString(hex.EncodeToString(sum[:]), 16)
	return n.Mod(n, big.NewInt(1e10)).Int64()
}
