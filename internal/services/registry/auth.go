package registry

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TokenTTL is the lifetime of issued user tokens.
const TokenTTL = 24 * time.Hour

type tokenClaims struct {
	Subject   string `json:"sub"`
	Issuer    string `json:"iss"`
	ExpiresAt int64  `json:"exp"`
}

// IssueToken returns a signed token asserting userID for this instance.
func (r *Registry) IssueToken(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: empty user ID", ErrUnauthorized)
	}
	claims := tokenClaims{
		Subject:   userID,
		Issuer:    r.issuer(),
		ExpiresAt: r.now().Add(TokenTTL).Unix(),
	}
	raw, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	body := base64.RawURLEncoding.EncodeToString(raw)
	return body + "." + r.sign(body), nil
}

// VerifyToken returns the user asserted by token.
func (r *Registry) VerifyToken(token string) (string, error) {
	body, sig, ok := strings.Cut(token, ".")
	if !ok || body == "" || sig == "" {
		return "", ErrUnauthorized
	}
	if !hmac.Equal([]byte(sig), []byte(r.sign(body))) {
		return "", ErrUnauthorized
	}
	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return "", ErrUnauthorized
	}
	var claims tokenClaims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return "", ErrUnauthorized
	}
	if claims.Issuer != r.issuer() || claims.Subject == "" {
		return "", ErrUnauthorized
	}
	if r.now().Unix() >= claims.ExpiresAt {
		return "", fmt.Errorf("%w: token expired", ErrUnauthorized)
	}
	return claims.Subject, nil
}

func (r *Registry) issuer() string {
	return "https://" + r.instanceID + ".pushnotifications.pusher.com"
}

func (r *Registry) sign(body string) string {
	mac := hmac.New(sha256.New, r.secret)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
