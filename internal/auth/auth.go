// Package auth validates session tokens and turns admin tokens into an
// AdminSession, the capability every admin operation requires.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrNotAdmin     = errors.New("admin role required")
)

type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	return &Issuer{secret: secret, ttl: ttl, now: time.Now}
}

// Issue signs a token for subject with the given role.
func (i *Issuer) Issue(subject, email, role string) (string, error) {
	now := i.now()
	claims := &Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

func (i *Issuer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// AdminSession proves the holder authenticated as an admin. The zero value
// grants nothing; only AdminFromClaims produces a usable session.
type AdminSession struct {
	id    int64
	email string
}

func AdminFromClaims(c *Claims) (AdminSession, error) {
	if c == nil || c.Role != RoleAdmin {
		return AdminSession{}, ErrNotAdmin
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return AdminSession{}, fmt.Errorf("%w: bad subject %q", ErrNotAdmin, c.Subject)
	}
	return AdminSession{id: id, email: c.Email}, nil
}

func (s AdminSession) Valid() bool {
	return s.id > 0
}

func (s AdminSession) ID() int64 {
	return s.id
}

func (s AdminSession) Email() string {
	return s.email
}
