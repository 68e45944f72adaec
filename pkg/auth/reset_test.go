package auth_test

import (
	"encoding/hex"
	"testing"

	"github.com/tilakkndl/Nature-app/pkg/auth"
)

func TestNewResetToken(t *testing.T) {
	raw, digest, err := auth.NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}

	if len(raw) != 64 {
		t.Errorf("raw token length = %d, want 64 hex chars (32 bytes)", len(raw))
	}
	if _, err := hex.DecodeString(raw); err != nil {
		t.Errorf("raw token is not hex: %v", err)
	}
	if raw == digest {
		t.Error("digest must differ from the raw token")
	}
	if auth.HashResetToken(raw) != digest {
		t.Error("digest must be recomputable from the raw token")
	}
}

func TestNewResetTokenUnique(t *testing.T) {
	first, _, err := auth.NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}
	second, _, err := auth.NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}

	if first == second {
		t.Error("consecutive reset tokens should never repeat")
	}
}

func TestHashResetTokenDeterministic(t *testing.T) {
	if auth.HashResetToken("abc") != auth.HashResetToken("abc") {
		t.Error("hash must be deterministic for store lookups")
	}
}

func TestHashResetTokenBitFlip(t *testing.T) {
	raw, digest, err := auth.NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}

	// Flip one character of the raw token.
	flipped := []byte(raw)
	if flipped[0] == 'a' {
		flipped[0] = 'b'
	} else {
		flipped[0] = 'a'
	}

	if auth.HashResetToken(string(flipped)) == digest {
		t.Error("a modified raw token must not produce the stored digest")
	}
}
