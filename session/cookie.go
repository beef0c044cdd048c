package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrTokenInvalid is returned for cookie tokens that fail verification.
var ErrTokenInvalid = errors.New("invalid session token")

const minSecretLen = 32

// CodecConfig configures a [CookieCodec].
type CodecConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	Leeway time.Duration
}

// CookieCodec signs and verifies the token that carries a session ID.
type CookieCodec struct {
	config CodecConfig
}

type cookieClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// NewCookieCodec validates cfg and returns a codec.
func NewCookieCodec(cfg CodecConfig) (*CookieCodec, error) {
	if len(cfg.Secret) < minSecretLen {
		return nil, fmt.Errorf("cookie secret must be at least %d bytes", minSecretLen)
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid cookie TTL")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &CookieCodec{config: cfg}, nil
}

// Encode returns a signed token for sessionID.
func (c *CookieCodec) Encode(sessionID string) (string, error) {
	now := time.Now()
	claims := cookieClaims{
		SID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(c.config.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    c.config.Issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.config.Secret)
}

// Decode verifies token and returns the session ID it carries.
func (c *CookieCodec) Decode(token string) (string, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}

	claims := &cookieClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return c.config.Secret, nil
	}, options...)
	if err != nil || !parsed.Valid {
		return "", ErrTokenInvalid
	}
	if _, err := uuid.Parse(claims.SID); err != nil {
		return "", ErrTokenInvalid
	}

	return claims.SID, nil
}
