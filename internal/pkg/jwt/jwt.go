package jwt

import (
	"fmt"
	"time"

	"github.com/bandroom/rehearsal-scheduler-backend/internal/config"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type Manager struct{}

func NewManger() *Manager {
	return &Manager{}
}

type InvalidTokenError struct {
	Reason string
}

func (e *InvalidTokenError) Error() string {
	return fmt.Sprintf("invalid token: %s", e.Reason)
}

type claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

func (m *Manager) CreateToken(id uuid.UUID) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(config.JwtTTL())),
		},
		UserID: id.String(),
	})

	signed, err := token.SignedString([]byte(config.Secret()))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

func (m *Manager) GetIdFromToken(token string) (uuid.UUID, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(config.Secret()), nil
	})
	if err != nil {
		return uuid.Nil, &InvalidTokenError{Reason: err.Error()}
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return uuid.Nil, &InvalidTokenError{Reason: "malformed claims"}
	}

	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil, &InvalidTokenError{Reason: "malformed user id"}
	}

	return id, nil
}
