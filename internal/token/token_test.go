package token

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateValidateRoundTrip(t *testing.T) {
	svc := NewService("test-secret")
	unitID := uuid.New()

	tok := svc.Generate(unitID, time.Now().Add(time.Hour))

	ok, got := svc.Validate(tok)
	assert.True(t, ok)
	assert.Equal(t, unitID, got)
}

func TestValidateExpiredToken(t *testing.T) {
	svc := NewService("test-secret")

	tok := svc.Generate(uuid.New(), time.Now().Add(-time.Minute))

	ok, got := svc.Validate(tok)
	assert.False(t, ok)
	assert.Equal(t, uuid.Nil, got)
}

func TestValidateWrongKey(t *testing.T) {
	minter := NewService("key-one")
	verifier := NewService("key-two")

	tok := minter.Generate(uuid.New(), time.Now().Add(time.Hour))

	ok, _ := verifier.Validate(tok)
	assert.False(t, ok)
}

func TestValidateBitFlips(t *testing.T) {
	svc := NewService("test-secret")

	tok := svc.Generate(uuid.New(), time.Now().Add(time.Hour))
	raw, err := base64.StdEncoding.DecodeString(tok)
	require.NoError(t, err)

	// Flipping any single bit of the decoded payload must break either the
	// structure or the tag.
	for i := range raw {
		mutated := make([]byte, len(raw))
		copy(mutated, raw)
		mutated[i] ^= 0x01

		ok, _ := svc.Validate(base64.StdEncoding.EncodeToString(mutated))
		assert.False(t, ok, "bit flip at byte %d was accepted", i)
	}
}

func TestValidateGarbage(t *testing.T) {
	svc := NewService("test-secret")

	for _, tok := range []string{
		"",
		"not base64 at all!!!",
		base64.StdEncoding.EncodeToString([]byte("no separators here")),
		base64.StdEncoding.EncodeToString([]byte("a|b")),
		base64.StdEncoding.EncodeToString([]byte("a|b|c|d")),
	} {
		ok, got := svc.Validate(tok)
		assert.False(t, ok, "token %q was accepted", tok)
		assert.Equal(t, uuid.Nil, got)
	}
}
