package auth

import (
	"errors"
	"slices"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

type Permission string

const (
	PermSlotsRead      Permission = "slots:read"
	PermSlotsWrite     Permission = "slots:write"
	PermBookingsRead   Permission = "bookings:read"
	PermBookingsCreate Permission = "bookings:create"
	PermBookingsUpdate Permission = "bookings:update"
)

type Claims struct {
	Perms []string `json:"perms"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller.
type Principal struct {
	Subject string
	Perms   []Permission
}

func (p Principal) Has(perm Permission) bool { return slices.Contains(p.Perms, perm) }

func CreateAccessToken(secret []byte, sub string, perms []Permission, ttl time.Duration) (string, error) {
	ps := make([]string, 0, len(perms))
	for _, p := range perms {
		ps = append(ps, string(p))
	}
	claims := Claims{Perms: ps, RegisteredClaims: jwt.RegisteredClaims{
		Subject:   sub,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func ParseValidate(secret []byte, tokenStr string) (Principal, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Principal{}, err
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.Subject == "" {
		return Principal{}, errors.New("invalid token")
	}
	p := Principal{Subject: c.Subject, Perms: make([]Permission, 0, len(c.Perms))}
	for _, s := range c.Perms {
		p.Perms = append(p.Perms, Permission(s))
	}
	return p, nil
}
