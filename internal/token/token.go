// package token issues and verifies the signed magic-link tokens that gate
// member self-service. Tokens are stateless: short expiry stands in for a
// server-side revocation list.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hesi-tools/memberdir/internal/shared"
)

// Lifetime bounds how long an emailed link stays usable.
const Lifetime = 20 * time.Minute

// Claims binds one member document to the email the link was sent to.
type Claims struct {
	MemberID string `json:"postId"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// Signer issues and verifies magic-link tokens with one HS256 secret.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner returns a signer for the given secret. An empty secret is a
// configuration error: tokens must never be signed with a guessable key.
func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: magic-link secret is not set", shared.ErrMissingSecret)
	}
	return &Signer{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a token binding the member to the email, valid for [Lifetime].
func (s *Signer) Issue(memberID, email string) (string, error) {
	now := s.now()
	claims := Claims{
		MemberID: memberID,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(Lifetime)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the bound claims. Every
// failure collapses into [shared.ErrTokenInvalid]; callers must not learn
// whether a link was tampered with or merely expired.
func (s *Signer) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return nil, shared.ErrTokenInvalid
	}
	if claims.MemberID == "" || claims.Email == "" {
		return nil, shared.ErrTokenInvalid
	}
	return claims, nil
}
