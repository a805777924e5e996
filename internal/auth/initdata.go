package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/LedyBacer/bs-budget-tracker-backend/internal/core"
)

// signatureLabel is the domain-separation constant the platform uses
// when deriving the signing key from the bot token.
const signatureLabel = "WebAppData"

type (
	// InitData is the decoded field set of a validated identity
	// assertion. Sub-objects are nil when absent or undecodable.
	InitData struct {
		AuthDate     time.Time
		ChatType     string
		ChatInstance string
		User         *UserInfo
		Chat         *ChatInfo
		Receiver     *UserInfo
	}

	UserInfo struct {
		ID           int64  `json:"id"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		Username     string `json:"username"`
		LanguageCode string `json:"language_code"`
		IsPremium    bool   `json:"is_premium"`
		PhotoURL     string `json:"photo_url"`
	}

	ChatInfo struct {
		ID    int64  `json:"id"`
		Type  string `json:"type"`
		Title string `json:"title"`
	}
)

// ParseInitData validates a raw signed assertion against the bot token
// and the freshness window, then decodes its fields.
//
// The check-string is every key=value pair except hash, sorted by key,
// joined with newlines. The signing key is HMAC-SHA256(label, token);
// the expected hash is HMAC-SHA256(key, check-string) hex-encoded.
func ParseInitData(raw, botToken string, ttl time.Duration, now time.Time) (*InitData, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedInitData, err)
	}

	providedHash := values.Get("hash")
	if providedHash == "" {
		return nil, fmt.Errorf("%w: hash field absent", core.ErrMalformedInitData)
	}
	values.Del("hash")

	if !hmac.Equal([]byte(computeHash(values, botToken)), []byte(providedHash)) {
		return nil, core.ErrInvalidSignature
	}

	authDateRaw := values.Get("auth_date")
	authDateUnix, err := strconv.ParseInt(authDateRaw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad auth_date %q", core.ErrExpiredInitData, authDateRaw)
	}
	authDate := time.Unix(authDateUnix, 0)
	if now.Sub(authDate) > ttl {
		return nil, fmt.Errorf("%w: auth_date %s older than %s", core.ErrExpiredInitData, authDate.UTC().Format(time.RFC3339), ttl)
	}

	data := &InitData{
		AuthDate:     authDate,
		ChatType:     values.Get("chat_type"),
		ChatInstance: values.Get("chat_instance"),
	}

	// JSON sub-fields decode best-effort: a broken embedded object
	// drops that object, never the whole assertion.
	if v := values.Get("user"); v != "" {
		var u UserInfo
		if err := json.Unmarshal([]byte(v), &u); err == nil {
			data.User = &u
		}
	}
	if v := values.Get("chat"); v != "" {
		var c ChatInfo
		if err := json.Unmarshal([]byte(v), &c); err == nil {
			data.Chat = &c
		}
	}
	if v := values.Get("receiver"); v != "" {
		var r UserInfo
		if err := json.Unmarshal([]byte(v), &r); err == nil {
			data.Receiver = &r
		}
	}

	return data, nil
}

func computeHash(values url.Values, botToken string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values.Get(k))
	}
	checkString := strings.Join(pairs, "\n")

	keyMAC := hmac.New(sha256.New, []byte(signatureLabel))
	keyMAC.Write([]byte(botToken))
	signingKey := keyMAC.Sum(nil)

	mac := hmac.New(sha256.New, signingKey)
	mac.Write([]byte(checkString))
	return hex.EncodeToString(mac.Sum(nil))
}
