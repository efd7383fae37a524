package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

// Claims represents JWT payload.
type Claims struct {
	Subject string `json:"sub"`
	Role    string `json:"role"`
	Kind    string `json:"typ"`
	jwt.RegisteredClaims
}

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

// Issuer signs and verifies HS256 tokens for user sessions.
type Issuer struct {
	Name       string
	Key        []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

// NewIssuer builds an issuer with the wall clock.
func NewIssuer(name, key string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{Name: name, Key: []byte(key), AccessTTL: accessTTL, RefreshTTL: refreshTTL, Now: time.Now}
}

func (i *Issuer) sign(subject, role, kind string, exp time.Time) (string, error) {
	now := i.Now()
	claims := Claims{
		Subject: subject,
		Role:    role,
		Kind:    kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.Name,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Key)
}

// Issue issues signed access and refresh tokens.
func (i *Issuer) Issue(subject, role string) (TokenPair, error) {
	now := i.Now()
	accessExp := now.Add(i.AccessTTL)
	refreshExp := now.Add(i.RefreshTTL)

	accessToken, err := i.sign(subject, role, kindAccess, accessExp)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, err := i.sign(subject, role, kindRefresh, refreshExp)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

// Parse validates an access token and returns claims.
func (i *Issuer) Parse(tokenStr string) (Claims, error) {
	return i.parse(tokenStr, kindAccess)
}

// ParseRefresh validates a refresh token and returns claims.
func (i *Issuer) ParseRefresh(tokenStr string) (Claims, error) {
	return i.parse(tokenStr, kindRefresh)
}

func (i *Issuer) parse(tokenStr, kind string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return i.Key, nil
	}, jwt.WithTimeFunc(i.Now))
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if i.Name != "" && claims.Issuer != i.Name {
		return Claims{}, errors.New("issuer mismatch")
	}
	if claims.Kind != kind {
		return Claims{}, errors.New("wrong token type")
	}
	return *claims, nil
}
