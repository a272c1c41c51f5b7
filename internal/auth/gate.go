// Package auth verifies bearer tokens issued by the external login service.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v4"

	"projectchat.app/relay/internal/model"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Claims is the token payload signed by the login service. userId is a string in
// tokens minted by current deployments and a number in older ones.
type Claims struct {
	UserID any    `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Gate checks HS256 tokens against a shared secret. It does no I/O.
type Gate struct {
	secret []byte
	parser *jwt.Parser
}

func NewGate(secret string) *Gate {
	return &Gate{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithJSONNumber(),
		),
	}
}

// Verify returns the principal the token was issued to. Every failure wraps
// ErrUnauthenticated.
func (g *Gate) Verify(token string) (*model.Principal, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrUnauthenticated)
	}
	if len(g.secret) == 0 {
		return nil, fmt.Errorf("%w: no signing secret configured", ErrUnauthenticated)
	}

	claims := &Claims{}
	if _, err := g.parser.ParseWithClaims(token, claims, g.key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	principalID, err := parseUserID(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	return &model.Principal{ID: principalID, Email: claims.Email}, nil
}

func (g *Gate) key(*jwt.Token) (any, error) {
	return g.secret, nil
}

func parseUserID(raw any) (int64, error) {
	var (
		v   int64
		err error
	)
	switch t := raw.(type) {
	case nil:
		return 0, errors.New("missing userId claim")
	case string:
		v, err = strconv.ParseInt(t, 10, 64)
	case json.Number:
		v, err = t.Int64()
	default:
		return 0, fmt.Errorf("userId claim has type %T", raw)
	}
	if err != nil {
		return 0, fmt.Errorf("malformed userId claim: %w", err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("userId claim must be positive, got %d", v)
	}
	return v, nil
}
