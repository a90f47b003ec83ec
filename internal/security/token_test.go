package security

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken("test-secret", RoleUser, 42, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, errParse := ParseToken("test-secret", token, RoleUser)
	if errParse != nil {
		t.Fatalf("parse: %v", errParse)
	}
	if claims.SubjectID != 42 {
		t.Fatalf("expected subject 42, got %d", claims.SubjectID)
	}
	if claims.Role != RoleUser {
		t.Fatalf("expected role %q, got %q", RoleUser, claims.Role)
	}
}

func TestParseToken_RoleMismatch(t *testing.T) {
	token, err := IssueToken("test-secret", RoleCafe, 7, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, errParse := ParseToken("test-secret", token, RoleAdmin); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for role mismatch, got %v", errParse)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := IssueToken("test-secret", RoleAdmin, 1, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, errParse := ParseToken("other-secret", token, RoleAdmin); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", errParse)
	}
}

func TestParseToken_Expired(t *testing.T) {
	token, err := IssueToken("test-secret", RoleUser, 1, -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, errParse := ParseToken("test-secret", token, RoleUser); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", errParse)
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "hunter22") {
		t.Fatalf("expected matching password to verify")
	}
	if CheckPassword(hash, "hunter23") {
		t.Fatalf("expected mismatched password to fail")
	}
}
