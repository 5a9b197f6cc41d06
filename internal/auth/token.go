package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"moneypal/internal/apperr"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenProvider issues and verifies the HS256 token pair. Access
// tokens authorize API calls; refresh tokens only mint new pairs.
type TokenProvider struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenProvider(secret string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// TokenPair is what login, register and refresh all return.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

func (p *TokenProvider) IssuePair(userID int64) (TokenPair, error) {
	access, err := p.sign(userID, tokenTypeAccess, p.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := p.sign(userID, tokenTypeRefresh, p.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(p.accessTTL.Seconds()),
	}, nil
}

func (p *TokenProvider) sign(userID int64, typ string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"typ": typ,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return token, nil
}

// VerifyAccess validates an access token and returns the user id.
func (p *TokenProvider) VerifyAccess(token string) (int64, error) {
	return p.verify(token, tokenTypeAccess)
}

// VerifyRefresh validates a refresh token and returns the user id.
func (p *TokenProvider) VerifyRefresh(token string) (int64, error) {
	return p.verify(token, tokenTypeRefresh)
}

func (p *TokenProvider) verify(raw, wantType string) (int64, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return 0, apperr.Unauthorized("invalid or expired token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, apperr.Unauthorized("invalid or expired token")
	}
	if typ, _ := claims["typ"].(string); typ != wantType {
		return 0, apperr.Unauthorized("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return 0, apperr.Unauthorized("invalid or expired token")
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID <= 0 {
		return 0, apperr.Unauthorized("invalid or expired token")
	}
	return userID, nil
}
