package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service mints and verifies self-contained redemption tokens. A token
// binds a ticket unit id to an expiry and carries an HMAC-SHA256 tag over
// both, so the door scanner can verify it without a database round-trip.
// The authoritative unit-status check still happens against the store
// afterwards.
type Service struct {
	secret []byte
}

func NewService(secret string) *Service {
	return &Service{secret: []byte(secret)}
}

// Generate returns base64("<unitID>|<expiryUnix>|<hexTag>") as one opaque
// string.
func (s *Service) Generate(unitID uuid.UUID, expiresAt time.Time) string {
	payload := fmt.Sprintf("%s|%d", unitID, expiresAt.Unix())
	return base64.StdEncoding.EncodeToString([]byte(payload + "|" + s.sign(payload)))
}

// Validate decodes the token, recomputes the tag and checks the expiry.
// The tag comparison is constant-time so a forged token cannot be refined
// byte by byte. Any parse failure yields (false, uuid.Nil).
func (s *Service) Validate(tok string) (bool, uuid.UUID) {
	raw, err := base64.StdEncoding.DecodeString(tok)
	if err != nil {
		return false, uuid.Nil
	}

	parts := strings.Split(string(raw), "|")
	if len(parts) != 3 {
		return false, uuid.Nil
	}

	payload := parts[0] + "|" + parts[1]
	if !hmac.Equal([]byte(s.sign(payload)), []byte(parts[2])) {
		return false, uuid.Nil
	}

	expUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return false, uuid.Nil
	}
	if time.Unix(expUnix, 0).Before(time.Now()) {
		return false, uuid.Nil
	}

	unitID, err := uuid.Parse(parts[0])
	if err != nil {
		return false, uuid.Nil
	}

	return true, unitID
}

func (s *Service) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
