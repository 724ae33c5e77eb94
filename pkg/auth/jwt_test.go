package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/tripline/rideshare-api/pkg/auth"
)

const secret = "test-secret"

func TestNewAccessTokenRoundTrip(t *testing.T) {
	token, err := auth.NewAccessToken(7, "driver@example.com", "driver", true, secret, time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken failed: %v", err)
	}

	claims, err := auth.Parse(token, secret)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Sub != 7 || claims.Email != "driver@example.com" || claims.Role != "driver" || !claims.Verified {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseWrongSecret(t *testing.T) {
	token, _ := auth.NewAccessToken(1, "a@example.com", "regular", false, secret, time.Hour)

	_, err := auth.Parse(token, "other-secret")
	if !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseExpiredToken(t *testing.T) {
	token, _ := auth.NewAccessToken(1, "a@example.com", "regular", false, secret, -time.Minute)

	_, err := auth.Parse(token, secret)
	if !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseGarbage(t *testing.T) {
	for _, tok := range []string{"", "not.a.jwt", "a.b"} {
		if _, err := auth.Parse(tok, secret); !errors.Is(err, auth.ErrInvalidToken) {
			t.Errorf("Parse(%q): err = %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestRemainingTTL(t *testing.T) {
	token, _ := auth.NewAccessToken(1, "a@example.com", "regular", false, secret, time.Hour)
	claims, err := auth.Parse(token, secret)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	ttl := claims.RemainingTTL()
	if ttl <= 59*time.Minute || ttl > time.Hour {
		t.Errorf("RemainingTTL = %v, want just under an hour", ttl)
	}
}
