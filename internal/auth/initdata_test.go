package auth

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/LedyBacer/bs-budget-tracker-backend/internal/core"
)

const testBotToken = "123456:test-bot-token"

// signInitData builds a raw assertion the way the platform client
// would: every field signed, hash appended last.
func signInitData(fields map[string]string, botToken string) string {
	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	hash := computeHash(values, botToken)
	values.Set("hash", hash)
	return values.Encode()
}

func freshFields(now time.Time) map[string]string {
	return map[string]string{
		"auth_date": strconv.FormatInt(now.Unix(), 10),
		"user":      `{"id":42,"first_name":"Ada","username":"ada","language_code":"en"}`,
	}
}

func TestParseInitData_Valid(t *testing.T) {
	now := time.Now()
	raw := signInitData(freshFields(now), testBotToken)

	data, err := ParseInitData(raw, testBotToken, 24*time.Hour, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.User == nil {
		t.Fatal("expected user to be decoded")
	}
	if data.User.ID != 42 || data.User.FirstName != "Ada" {
		t.Fatalf("unexpected user: %+v", data.User)
	}
	if got := data.AuthDate.Unix(); got != now.Unix() {
		t.Fatalf("expected auth date %d, got %d", now.Unix(), got)
	}
}

func TestParseInitData_DecodesChat(t *testing.T) {
	now := time.Now()
	fields := freshFields(now)
	fields["chat"] = `{"id":-100987,"type":"supergroup","title":"Family"}`
	raw := signInitData(fields, testBotToken)

	data, err := ParseInitData(raw, testBotToken, 24*time.Hour, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Chat == nil {
		t.Fatal("expected chat to be decoded")
	}
	if data.Chat.ID != -100987 || data.Chat.Type != "supergroup" {
		t.Fatalf("unexpected chat: %+v", data.Chat)
	}
}

func TestParseInitData_TamperedPayload(t *testing.T) {
	now := time.Now()
	raw := signInitData(freshFields(now), testBotToken)

	// Swap the signed user id for another one
	values, _ := url.ParseQuery(raw)
	values.Set("user", `{"id":43,"first_name":"Eve"}`)
	tampered := values.Encode()

	_, err := ParseInitData(tampered, testBotToken, 24*time.Hour, now)
	if !errors.Is(err, core.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestParseInitData_WrongToken(t *testing.T) {
	now := time.Now()
	raw := signInitData(freshFields(now), "999999:other-token")

	_, err := ParseInitData(raw, testBotToken, 24*time.Hour, now)
	if !errors.Is(err, core.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestParseInitData_MissingHash(t *testing.T) {
	now := time.Now()
	raw := fmt.Sprintf("auth_date=%d&user=%s", now.Unix(), url.QueryEscape(`{"id":42}`))

	_, err := ParseInitData(raw, testBotToken, 24*time.Hour, now)
	if !errors.Is(err, core.ErrMalformedInitData) {
		t.Fatalf("expected ErrMalformedInitData, got %v", err)
	}
}

func TestParseInitData_Malformed(t *testing.T) {
	_, err := ParseInitData("%zz=broken", testBotToken, 24*time.Hour, time.Now())
	if !errors.Is(err, core.ErrMalformedInitData) {
		t.Fatalf("expected ErrMalformedInitData, got %v", err)
	}
}

func TestParseInitData_Expired(t *testing.T) {
	now := time.Now()
	stale := freshFields(now.Add(-48 * time.Hour))
	raw := signInitData(stale, testBotToken)

	_, err := ParseInitData(raw, testBotToken, 24*time.Hour, now)
	if !errors.Is(err, core.ErrExpiredInitData) {
		t.Fatalf("expected ErrExpiredInitData, got %v", err)
	}
}

func TestParseInitData_BadAuthDate(t *testing.T) {
	now := time.Now()
	for name, authDate := range map[string]string{
		"non-numeric": "yesterday",
		"absent":      "",
	} {
		t.Run(name, func(t *testing.T) {
			fields := freshFields(now)
			if authDate == "" {
				delete(fields, "auth_date")
			} else {
				fields["auth_date"] = authDate
			}
			raw := signInitData(fields, testBotToken)

			_, err := ParseInitData(raw, testBotToken, 24*time.Hour, now)
			if !errors.Is(err, core.ErrExpiredInitData) {
				t.Fatalf("expected ErrExpiredInitData, got %v", err)
			}
		})
	}
}

func TestParseInitData_BrokenUserJSONDropsUser(t *testing.T) {
	now := time.Now()
	fields := freshFields(now)
	fields["user"] = `{"id":42,` // truncated
	raw := signInitData(fields, testBotToken)

	data, err := ParseInitData(raw, testBotToken, 24*time.Hour, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.User != nil {
		t.Fatalf("expected user to be dropped, got %+v", data.User)
	}
}
