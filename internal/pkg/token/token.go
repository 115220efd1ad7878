package token

import (
	"errors"
	"time"

	"github.com/KerjaQuest/KerjaQuest/internal/pkg/env"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers expired, malformed and badly signed tokens.
var ErrInvalidToken = errors.New("token: invalid or expired token")

// Claims are the JWT claims carried by access tokens.
type Claims struct {
	UserID uint   `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func secret() []byte {
	return []byte(env.GetEnv("JWT_SECRET", ""))
}

// Issue signs an access token for a user. Lifetime defaults to 24h and can
// be tuned with JWT_TTL_HOURS.
func Issue(userID uint, role string) (string, error) {
	ttl := time.Duration(env.GetEnvInt("JWT_TTL_HOURS", 24)) * time.Hour
	now := time.Now()

	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret())
}

// Parse verifies a token string and returns its claims.
func Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret(), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
