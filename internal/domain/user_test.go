package domain_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/tilakkndl/Nature-app/internal/domain"
)

func TestSignupRequestValidate(t *testing.T) {
	valid := domain.SignupRequest{
		Name:            "Leo Gillespie",
		Email:           "leo@example.com",
		Password:        "pass1234",
		PasswordConfirm: "pass1234",
	}

	tests := []struct {
		name    string
		mutate  func(r *domain.SignupRequest)
		wantErr bool
	}{
		{"valid", func(r *domain.SignupRequest) {}, false},
		{"missing name", func(r *domain.SignupRequest) { r.Name = "" }, true},
		{"missing email", func(r *domain.SignupRequest) { r.Email = "" }, true},
		{"bad email", func(r *domain.SignupRequest) { r.Email = "not-an-email" }, true},
		{"short password", func(r *domain.SignupRequest) { r.Password, r.PasswordConfirm = "short", "short" }, true},
		{"confirm mismatch", func(r *domain.SignupRequest) { r.PasswordConfirm = "pass12345" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSignupRequestNormalize(t *testing.T) {
	req := domain.SignupRequest{
		Name:  "  Leo ",
		Email: " LEO@Example.COM ",
	}
	req.Normalize()

	if req.Email != "leo@example.com" {
		t.Errorf("email = %q", req.Email)
	}
	if req.Name != "Leo" {
		t.Errorf("name = %q", req.Name)
	}
}

func TestIsValidRole(t *testing.T) {
	for _, role := range []string{"user", "admin", "guide", "lead-guide"} {
		if !domain.IsValidRole(role) {
			t.Errorf("IsValidRole(%q) = false", role)
		}
	}
	for _, role := range []string{"", "superadmin", "Admin", "root"} {
		if domain.IsValidRole(role) {
			t.Errorf("IsValidRole(%q) = true", role)
		}
	}
}

func TestPasswordChangedAfter(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	u := domain.User{}
	if u.PasswordChangedAfter(issued) {
		t.Error("no recorded change should never invalidate a token")
	}

	earlier := issued.Add(-time.Hour)
	u.PasswordChangedAt = &earlier
	if u.PasswordChangedAfter(issued) {
		t.Error("change before issuance should not invalidate the token")
	}

	later := issued.Add(time.Second)
	u.PasswordChangedAt = &later
	if !u.PasswordChangedAfter(issued) {
		t.Error("change after issuance must invalidate the token")
	}

	// Sub-second drift within the same epoch second must not count as later.
	sameSecond := issued.Add(500 * time.Millisecond)
	u.PasswordChangedAt = &sameSecond
	if u.PasswordChangedAfter(issued) {
		t.Error("comparison must happen at whole-second resolution")
	}
}

func TestUserSerializationHidesSecrets(t *testing.T) {
	hash := "hash"
	exp := time.Now()
	u := domain.User{
		ID:             1,
		Email:          "leo@example.com",
		Name:           "Leo",
		Role:           domain.RoleUser,
		PasswordHash:   "$2a$12$secret",
		ResetTokenHash: &hash,
		ResetExpiresAt: &exp,
	}

	raw, err := json.Marshal(&u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)
	if strings.Contains(body, "secret") || strings.Contains(body, "password") {
		t.Errorf("serialized user leaks credentials: %s", body)
	}

	info, err := json.Marshal(u.ToUserInfo())
	if err != nil {
		t.Fatalf("marshal info: %v", err)
	}
	if strings.Contains(string(info), "secret") {
		t.Errorf("UserInfo leaks credentials: %s", info)
	}
}
