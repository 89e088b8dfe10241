package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nickyhof/CommitORM/core"
)

var errAuthNotConfigured = errors.New("authentication not configured")

// AuthConfig configures JWT authentication. Tokens must be HMAC signed
// with JWTSecret. Issuer and Audience are checked only when set.
type AuthConfig struct {
	Enabled   bool
	JWTSecret string
	Issuer    string
	Audience  string

	// Claims holding the author of journal entries. Default "name" and "email".
	NameClaim  string
	EmailClaim string
}

// ConnectionState is the authentication state of one client connection.
type ConnectionState struct {
	identity      *core.Identity
	authenticated bool
	tokenExpiry   time.Time
}

func (cs *ConnectionState) IsAuthenticated() bool {
	return cs.authenticated
}

func (cs *ConnectionState) Identity() *core.Identity {
	return cs.identity
}

// Expired reports whether an authenticated token has passed its expiry.
func (cs *ConnectionState) Expired() bool {
	return cs.authenticated && !cs.tokenExpiry.IsZero() && time.Now().After(cs.tokenExpiry)
}

func (cs *ConnectionState) authenticate(identity core.Identity, expiry time.Time) {
	cs.identity = &identity
	cs.authenticated = true
	cs.tokenExpiry = expiry
}

func (c *AuthConfig) claimNames() (name, email string) {
	name, email = c.NameClaim, c.EmailClaim
	if name == "" {
		name = "name"
	}
	if email == "" {
		email = "email"
	}
	return name, email
}

func (c *AuthConfig) parser() *jwt.Parser {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if c.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.Issuer))
	}
	if c.Audience != "" {
		opts = append(opts, jwt.WithAudience(c.Audience))
	}
	return jwt.NewParser(opts...)
}

// verify checks the token signature and registered claims and returns the
// identity it carries together with its expiry (zero when absent).
func (c *AuthConfig) verify(tokenString string) (core.Identity, time.Time, error) {
	if c == nil || c.JWTSecret == "" {
		return core.Identity{}, time.Time{}, errAuthNotConfigured
	}

	claims := jwt.MapClaims{}
	_, err := c.parser().ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(c.JWTSecret), nil
	})
	if err != nil {
		return core.Identity{}, time.Time{}, fmt.Errorf("invalid token: %w", err)
	}

	nameClaim, emailClaim := c.claimNames()
	identity := core.Identity{}
	identity.Name, _ = claims[nameClaim].(string)
	identity.Email, _ = claims[emailClaim].(string)
	if identity.Name == "" && identity.Email == "" {
		return core.Identity{}, time.Time{}, fmt.Errorf("token missing identity claims (%s or %s)", nameClaim, emailClaim)
	}

	var expiry time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiry = exp.Time
	}
	return identity, expiry, nil
}

// parseAuthCommand splits "AUTH JWT <token>". The keyword and type are
// case-insensitive.
func parseAuthCommand(line string) (authType, token string, err error) {
	parts := strings.Fields(line)
	if len(parts) == 0 || !strings.EqualFold(parts[0], "AUTH") {
		return "", "", errors.New("not an AUTH command")
	}
	if len(parts) != 3 {
		return "", "", errors.New("invalid AUTH command: expected AUTH <type> <credentials>")
	}

	authType = strings.ToUpper(parts[1])
	if authType != "JWT" {
		return "", "", fmt.Errorf("unsupported auth type: %s", parts[1])
	}
	return authType, parts[2], nil
}

func (s *Server) handleAuth(line string, state *ConnectionState) Response {
	fail := func(err error) Response {
		return Response{Success: false, Type: "auth", Error: err.Error()}
	}

	_, token, err := parseAuthCommand(line)
	if err != nil {
		return fail(err)
	}

	identity, expiry, err := s.authConfig.verify(token)
	if err != nil {
		s.log.Warn("authentication failed", "error", err)
		return fail(err)
	}

	state.authenticate(identity, expiry)
	s.log.Info("client authenticated", "identity", identity.String())

	ar := AuthResponse{Authenticated: true, Identity: identity.String()}
	if !expiry.IsZero() {
		ar.ExpiresIn = int(time.Until(expiry).Seconds())
	}
	return encoded("auth", ar)
}
