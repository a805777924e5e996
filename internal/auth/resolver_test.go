package auth

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/LedyBacer/bs-budget-tracker-backend/internal/core"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/log"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/storage"
)

func newTestRepo(t *testing.T) *storage.Repository {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	logger := log.New(log.DefaultConfig())
	return NewResolver(testBotToken, 24*time.Hour, logger)
}

func TestResolve_CreatesUser(t *testing.T) {
	repo := newTestRepo(t)
	r := newTestResolver(t)
	now := time.Now()
	raw := signInitData(freshFields(now), testBotToken)

	p, err := r.Resolve(context.Background(), repo.Queries(), raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.User.ID != 42 || p.User.Username != "ada" {
		t.Fatalf("unexpected principal user: %+v", p.User)
	}
	if p.Chat != nil {
		t.Fatalf("expected no chat context, got %+v", p.Chat)
	}
	if owner := p.Owner(); !owner.IsUser() || owner.UserID != 42 {
		t.Fatalf("expected user owner 42, got %+v", owner)
	}

	stored, err := repo.Queries().GetUser(context.Background(), 42)
	if err != nil {
		t.Fatalf("user row missing: %v", err)
	}
	if stored.FirstName != "Ada" {
		t.Fatalf("unexpected stored user: %+v", stored)
	}
}

func TestResolve_RepeatIsPureRead(t *testing.T) {
	repo := newTestRepo(t)
	r := newTestResolver(t)

	first := time.Now()
	r.now = func() time.Time { return first }
	raw := signInitData(freshFields(first), testBotToken)

	if _, err := r.Resolve(context.Background(), repo.Queries(), raw); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	before, err := repo.Queries().GetUser(context.Background(), 42)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}

	// Same asserted fields an hour later must not touch the row.
	second := first.Add(time.Hour)
	r.now = func() time.Time { return second }
	raw = signInitData(freshFields(second), testBotToken)
	if _, err := r.Resolve(context.Background(), repo.Queries(), raw); err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	after, err := repo.Queries().GetUser(context.Background(), 42)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatalf("expected unchanged updated_at, got %v -> %v", before.UpdatedAt, after.UpdatedAt)
	}
}

func TestResolve_ChangedFieldsRefresh(t *testing.T) {
	repo := newTestRepo(t)
	r := newTestResolver(t)

	first := time.Now()
	r.now = func() time.Time { return first }
	raw := signInitData(freshFields(first), testBotToken)
	if _, err := r.Resolve(context.Background(), repo.Queries(), raw); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	second := first.Add(time.Hour)
	r.now = func() time.Time { return second }
	fields := freshFields(second)
	fields["user"] = `{"id":42,"first_name":"Ada","username":"ada_l","language_code":"en"}`
	raw = signInitData(fields, testBotToken)

	p, err := r.Resolve(context.Background(), repo.Queries(), raw)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if p.User.Username != "ada_l" {
		t.Fatalf("expected refreshed username, got %q", p.User.Username)
	}

	stored, err := repo.Queries().GetUser(context.Background(), 42)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if stored.Username != "ada_l" {
		t.Fatalf("expected stored username ada_l, got %q", stored.Username)
	}
	if !stored.UpdatedAt.After(stored.CreatedAt) {
		t.Fatalf("expected updated_at to advance: created=%v updated=%v", stored.CreatedAt, stored.UpdatedAt)
	}
}

func TestResolve_GroupChatContext(t *testing.T) {
	repo := newTestRepo(t)
	r := newTestResolver(t)
	now := time.Now()

	fields := freshFields(now)
	fields["chat"] = `{"id":-100987,"type":"supergroup","title":"Family"}`
	raw := signInitData(fields, testBotToken)

	p, err := r.Resolve(context.Background(), repo.Queries(), raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Chat == nil || p.Chat.ID != -100987 {
		t.Fatalf("expected chat context, got %+v", p.Chat)
	}
	if owner := p.Owner(); !owner.IsChat() || owner.ChatID != -100987 {
		t.Fatalf("expected chat owner, got %+v", owner)
	}

	stored, err := repo.Queries().GetChat(context.Background(), -100987)
	if err != nil {
		t.Fatalf("chat row missing: %v", err)
	}
	if stored.Title != "Family" {
		t.Fatalf("unexpected stored chat: %+v", stored)
	}
}

func TestResolve_PrivateChatIsNotGroupContext(t *testing.T) {
	repo := newTestRepo(t)
	r := newTestResolver(t)
	now := time.Now()

	fields := freshFields(now)
	fields["chat"] = `{"id":42,"type":"private","title":""}`
	raw := signInitData(fields, testBotToken)

	p, err := r.Resolve(context.Background(), repo.Queries(), raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Chat != nil {
		t.Fatalf("private chat must not establish a group context, got %+v", p.Chat)
	}
}

func TestResolve_SyntheticChat(t *testing.T) {
	repo := newTestRepo(t)
	r := newTestResolver(t)
	now := time.Now()

	fields := freshFields(now)
	fields["chat_instance"] = "-4299223451385036871"
	fields["chat_type"] = "group"
	raw := signInitData(fields, testBotToken)

	p, err := r.Resolve(context.Background(), repo.Queries(), raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Chat == nil {
		t.Fatal("expected synthetic chat context")
	}
	wantID := syntheticChatID("-4299223451385036871")
	if p.Chat.ID != wantID {
		t.Fatalf("expected synthetic id %d, got %d", wantID, p.Chat.ID)
	}

	// Same chat_instance always folds to the same id.
	p2, err := r.Resolve(context.Background(), repo.Queries(), raw)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if p2.Chat.ID != wantID {
		t.Fatalf("synthetic id not stable: %d vs %d", p2.Chat.ID, wantID)
	}
}

func TestSyntheticChatID_Range(t *testing.T) {
	for _, instance := range []string{"abc", "-4299223451385036871", "", "Z"} {
		id := syntheticChatID(instance)
		if id < 0 || id >= 1e10 {
			t.Fatalf("%q: id %d out of range", instance, id)
		}
	}
}

func TestResolve_MissingUser(t *testing.T) {
	repo := newTestRepo(t)
	r := newTestResolver(t)
	now := time.Now()

	raw := signInitData(map[string]string{
		"auth_date": strconv.FormatInt(now.Unix(), 10),
	}, testBotToken)

	_, err := r.Resolve(context.Background(), repo.Queries(), raw)
	if !errors.Is(err, core.ErrMissingUser) {
		t.Fatalf("expected ErrMissingUser, got %v", err)
	}
}
