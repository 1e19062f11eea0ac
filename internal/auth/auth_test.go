package auth

import (
	"testing"

	"github.com/google/uuid"
)

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateToken(userID)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	parsed, err := GetUserID(token)
	if err != nil {
		t.Fatalf("GetUserID failed: %v", err)
	}
	if parsed != userID {
		t.Fatalf("expected %s, got %s", userID, parsed)
	}
}

func TestGetUserIDRejectsGarbage(t *testing.T) {
	if _, err := GetUserID("not-a-token"); err == nil {
		t.Fatal("expected an error for a malformed token")
	}
}
