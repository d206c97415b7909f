package app

import (
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// RejoinService issues short-lived tokens that let a disconnected player prove
// they held a seat in a specific room when they come back.
type RejoinService struct {
	secret string
	issuer string
	ttl    time.Duration
}

// NewRejoinService builds a token service. A zero ttl defaults to one hour.
func NewRejoinService(secret, issuer string, ttl time.Duration) *RejoinService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RejoinService{secret: secret, issuer: issuer, ttl: ttl}
}

// GenerateToken signs a rejoin claim binding the user to the room.
func (s *RejoinService) GenerateToken(userID, roomID string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("rejoin service is nil")
	}
	if userID == "" {
		return "", fmt.Errorf("user is required")
	}
	if roomID == "" {
		return "", fmt.Errorf("room is required")
	}
	if s.secret == "" || s.issuer == "" {
		return "", fmt.Errorf("rejoin config is incomplete")
	}

	claims := jwt.MapClaims{
		"iss":  s.issuer,
		"sub":  userID,
		"room": roomID,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// ValidateToken verifies a rejoin token and returns the user and room it was
// issued for. Expired or tampered tokens fail.
func (s *RejoinService) ValidateToken(tokenString string) (userID, roomID string, err error) {
	if s == nil || s.secret == "" {
		return "", "", fmt.Errorf("rejoin config is incomplete")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return "", "", fmt.Errorf("parse rejoin token: %w", err)
	}
	if !token.Valid {
		return "", "", fmt.Errorf("rejoin token is invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("rejoin token claims are malformed")
	}
	if iss, _ := claims["iss"].(string); iss != s.issuer {
		return "", "", fmt.Errorf("rejoin token issuer mismatch")
	}
	userID, _ = claims["sub"].(string)
	roomID, _ = claims["room"].(string)
	if userID == "" || roomID == "" {
		return "", "", fmt.Errorf("rejoin token claims are incomplete")
	}
	return userID, roomID, nil
}
