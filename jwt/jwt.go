package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload carried by every access token.
type Claims struct {
	UserID uint   `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is what a verified token tells about the caller.
type Identity struct {
	UserID   uint
	Username string
	Role     string
}

type Manager struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewManager(key []byte, ttl time.Duration) *Manager {
	return &Manager{key: key, ttl: ttl, now: time.Now}
}

// GenerateToken signs a token for the user that expires after the configured TTL.
func (m *Manager) GenerateToken(userID uint, username, role string) (string, error) {
	now := m.now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// VerifyToken checks signature and expiry and returns the caller identity.
func (m *Manager) VerifyToken(tokenString string) (Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	if claims.Subject == "" || claims.Role == "" || claims.UserID == 0 {
		return Identity{}, fmt.Errorf("%w: missing claims", ErrInvalidToken)
	}

	return Identity{
		UserID:   claims.UserID,
		Username: claims.Subject,
		Role:     claims.Role,
	}, nil
}
