package core

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrBadPassword  = errors.New("core: bad password")
	ErrInvalidToken = errors.New("core: invalid reconnect token")
)

const tokenIssuer = "breakaway"

// ReconnectClaims are carried by the token handed out in JoinAccepted. A
// client presenting it again keeps its name and team.
type ReconnectClaims struct {
	Name string `json:"usr"`
	Team int    `json:"team"`
	jwt.RegisteredClaims
}

// Auth checks the optional join password and signs reconnect tokens.
type Auth struct {
	passHash []byte // nil when the server is open
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

// NewAuth hashes password once at start. An empty secret gets a random one,
// which invalidates tokens from earlier runs.
func NewAuth(password string, secret []byte, ttl time.Duration) (*Auth, error) {
	a := &Auth{secret: secret, ttl: ttl, now: time.Now}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		a.passHash = hash
	}
	if len(a.secret) == 0 {
		a.secret = make([]byte, 32)
		if _, err := rand.Read(a.secret); err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
	}
	return a, nil
}

// CheckPassword returns ErrBadPassword unless the server is open or password
// matches.
func (a *Auth) CheckPassword(password string) error {
	if a.passHash == nil {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword(a.passHash, []byte(password)); err != nil {
		return ErrBadPassword
	}
	return nil
}

// IssueToken signs an HS256 reconnect token.
func (a *Auth) IssueToken(name string, team int) (string, error) {
	now := a.now()
	claims := ReconnectClaims{
		Name: name,
		Team: team,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign reconnect token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a reconnect token. Every failure is ErrInvalidToken.
func (a *Auth) ParseToken(tokenStr string) (ReconnectClaims, error) {
	var claims ReconnectClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return ReconnectClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ReconnectClaims{}, ErrInvalidToken
	}
	return claims, nil
}
