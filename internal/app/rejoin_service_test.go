package app

import (
	"fmt"
	"testing"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

func TestRejoinServiceRoundTrip(t *testing.T) {
	svc := NewRejoinService("test-secret", "cardczar", time.Hour)

	tokenString, err := svc.GenerateToken("user123", "room-456")
	if err != nil {
		t.Fatalf("generate token error: %v", err)
	}

	userID, roomID, err := svc.ValidateToken(tokenString)
	if err != nil {
		t.Fatalf("validate token error: %v", err)
	}
	if userID != "user123" {
		t.Fatalf("user = %s, want user123", userID)
	}
	if roomID != "room-456" {
		t.Fatalf("room = %s, want room-456", roomID)
	}
}

func TestRejoinServiceClaims(t *testing.T) {
	secret := "test-secret"
	svc := NewRejoinService(secret, "cardczar", time.Hour)

	tokenString, err := svc.GenerateToken("user123", "room-456")
	if err != nil {
		t.Fatalf("generate token error: %v", err)
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		t.Fatalf("parse token error: %v", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("claims are not map claims")
	}
	if got, _ := claims["iss"].(string); got != "cardczar" {
		t.Fatalf("iss = %s, want cardczar", got)
	}
	if got, _ := claims["sub"].(string); got != "user123" {
		t.Fatalf("sub = %s, want user123", got)
	}
	if got, _ := claims["room"].(string); got != "room-456" {
		t.Fatalf("room = %s, want room-456", got)
	}
}

func TestRejoinServiceRejectsTamperedToken(t *testing.T) {
	svc := NewRejoinService("test-secret", "cardczar", time.Hour)
	other := NewRejoinService("other-secret", "cardczar", time.Hour)

	tokenString, err := other.GenerateToken("user123", "room-456")
	if err != nil {
		t.Fatalf("generate token error: %v", err)
	}
	if _, _, err := svc.ValidateToken(tokenString); err == nil {
		t.Fatal("expected error for token signed with a different secret")
	}
}

func TestRejoinServiceRejectsExpiredToken(t *testing.T) {
	svc := NewRejoinService("test-secret", "cardczar", -time.Hour)
	// Constructor clamps non-positive ttl, so expire one manually.
	claims := jwt.MapClaims{
		"iss":  "cardczar",
		"sub":  "user123",
		"room": "room-456",
		"exp":  time.Now().Add(-time.Minute).Unix(),
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token error: %v", err)
	}
	if _, _, err := svc.ValidateToken(tokenString); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestRejoinServiceRejectsWrongIssuer(t *testing.T) {
	minted := NewRejoinService("test-secret", "someone-else", time.Hour)
	svc := NewRejoinService("test-secret", "cardczar", time.Hour)

	tokenString, err := minted.GenerateToken("user123", "room-456")
	if err != nil {
		t.Fatalf("generate token error: %v", err)
	}
	if _, _, err := svc.ValidateToken(tokenString); err == nil {
		t.Fatal("expected error for issuer mismatch")
	}
}

func TestRejoinServiceRequiresConfig(t *testing.T) {
	svc := NewRejoinService("", "cardczar", time.Hour)
	if _, err := svc.GenerateToken("user", "room"); err == nil {
		t.Fatal("expected error for missing secret")
	}
	if _, err := NewRejoinService("s", "i", 0).GenerateToken("", "room"); err == nil {
		t.Fatal("expected error for empty user")
	}
	if _, err := NewRejoinService("s", "i", 0).GenerateToken("user", ""); err == nil {
		t.Fatal("expected error for empty room")
	}
}
