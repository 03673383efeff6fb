package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jhubafrica/points-service/internal/domain"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is what the service reads from an access token issued by the auth
// service.
type Claims struct {
	UserID uuid.UUID
	Role   domain.UserRole
}

func (c Claims) IsAdmin() bool {
	return c.Role == domain.RoleAdmin
}

type TokenManager struct {
	accessSecret []byte
}

func NewTokenManager(accessSecret string) *TokenManager {
	return &TokenManager{accessSecret: []byte(accessSecret)}
}

// Generate signs an access token. The auth service owns issuance; this is
// used by tooling and tests.
func (m *TokenManager) Generate(userID uuid.UUID, role domain.UserRole, ttl time.Duration) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.String(),
		"role": string(role),
		"exp":  time.Now().Add(ttl).Unix(),
		"type": "access",
	})
	return t.SignedString(m.accessSecret)
}

func (m *TokenManager) Validate(tokenStr string) (Claims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.accessSecret, nil
	})
	if err != nil {
		return Claims{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	if typ, _ := claims["type"].(string); typ != "" && typ != "access" {
		return Claims{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = string(domain.RoleStudent)
	}
	return Claims{UserID: userID, Role: domain.UserRole(role)}, nil
}
