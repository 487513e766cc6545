package push

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// EncodeToken turns a subscription into the opaque token stored locally
// and sent to the registrar: standard base64 of its JSON form.
func EncodeToken(sub *Subscription) (string, error) {
	if sub == nil {
		return "", fmt.Errorf("subscription is nil")
	}
	raw, err := json.Marshal(sub)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeToken reverses EncodeToken.
func DecodeToken(token string) (*Subscription, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	var sub Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &sub, nil
}

// DecodeApplicationServerKey decodes a URL-safe base64 VAPID key, with or
// without padding.
func DecodeApplicationServerKey(key string) ([]byte, error) {
	key = strings.TrimRight(strings.TrimSpace(key), "=")
	if key == "" {
		return nil, fmt.Errorf("application server key is empty")
	}
	decoded, err := base64.RawURLEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("decode application server key: %w", err)
	}
	return decoded, nil
}
