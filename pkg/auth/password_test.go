package auth_test

import (
	"testing"

	"github.com/tilakkndl/Nature-app/pkg/auth"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	digest, err := auth.HashPassword("pass1234")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	if digest == "pass1234" {
		t.Fatal("digest must not equal plaintext")
	}
	if !auth.CheckPassword("pass1234", digest) {
		t.Error("correct password rejected")
	}
	if auth.CheckPassword("pass12345", digest) {
		t.Error("wrong password accepted")
	}
	if auth.CheckPassword("", digest) {
		t.Error("empty password accepted")
	}
}

func TestHashPasswordSalted(t *testing.T) {
	first, err := auth.HashPassword("pass1234")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	second, err := auth.HashPassword("pass1234")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	if first == second {
		t.Error("two hashes of the same password should differ (random salt)")
	}
	if !auth.CheckPassword("pass1234", first) || !auth.CheckPassword("pass1234", second) {
		t.Error("both digests should verify against the original password")
	}
}
