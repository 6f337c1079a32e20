package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is a staff role. Roles form a strict hierarchy: a role is granted every
// capability of the roles ranked below it.
type Role string

const (
	RoleBoss      Role = "boss"
	RoleAdmin     Role = "admin"
	RoleUser      Role = "user"
	RoleFinancial Role = "financial"
)

// roleRank orders roles from most to least privileged.
var roleRank = map[Role]int{
	RoleBoss:      0,
	RoleAdmin:     1,
	RoleUser:      2,
	RoleFinancial: 3,
}

// IsValid returns true if the role is recognized.
func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r is ranked equal to or above required.
func (r Role) AtLeast(required Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	need, ok := roleRank[required]
	if !ok {
		return false
	}
	return have <= need
}

// Claims are the JWT claims issued to staff users.
type Claims struct {
	UserID    int64  `json:"user_id"`
	Role      Role   `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// JWTManager issues and validates HMAC-signed tokens.
type JWTManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewJWTManager creates a new JWTManager.
func NewJWTManager(secret string, accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// GenerateAccessToken issues a short-lived access token.
func (m *JWTManager) GenerateAccessToken(userID int64, role Role) (string, error) {
	return m.generate(userID, role, tokenTypeAccess, m.accessTTL)
}

// GenerateRefreshToken issues a long-lived refresh token.
func (m *JWTManager) GenerateRefreshToken(userID int64, role Role) (string, error) {
	return m.generate(userID, role, tokenTypeRefresh, m.refreshTTL)
}

func (m *JWTManager) generate(userID int64, role Role, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken parses an access token and returns its claims.
func (m *JWTManager) ValidateAccessToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, errors.New("not an access token")
	}
	if !claims.Role.IsValid() {
		return nil, fmt.Errorf("unknown role: %s", claims.Role)
	}
	return claims, nil
}
