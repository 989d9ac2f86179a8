package auth

import (
	"fmt"
	"time"

	"github.com/dkeye/clicker/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenTTL = 12 * time.Hour

// Claims identify a user: sub is the user ID, name the display name.
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Signer issues and validates HS256 tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Signer{secret: []byte(secret), ttl: ttl}
}

func (s *Signer) TTL() time.Duration { return s.ttl }

func (s *Signer) Sign(u *domain.User, now time.Time) (string, error) {
	claims := Claims{
		Name: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse validates the token and returns the user it names. Every failure wraps
// domain.ErrNotAuthenticated.
func (s *Signer) Parse(token string) (*domain.User, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNotAuthenticated, err)
	}
	if claims.Subject == "" || len(claims.Subject) > domain.MaxUserIDLen {
		return nil, fmt.Errorf("%w: invalid subject", domain.ErrNotAuthenticated)
	}
	u := &domain.User{ID: domain.UserID(claims.Subject)}
	if err := u.SetUsername(claims.Name); err != nil {
		u.Username = "guest"
	}
	return u, nil
}
