// Package authentication keeps the CLI's access token in the OS keyring.
package authentication

import (
	"encoding/json"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	serviceName = "ratingsctl"
	tokenKey    = "auth_tokens"
)

type StoredCredentials struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
	ExpiresAt   int64  `json:"expires_at"`
}

// Expired reports whether the token's exp claim lies before now. Tokens
// stored without an expiry never expire on the client side.
func (c *StoredCredentials) Expired(now time.Time) bool {
	return c.ExpiresAt > 0 && now.After(time.Unix(c.ExpiresAt, 0))
}

func StoreTokens(creds *StoredCredentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return keyring.Set(serviceName, tokenKey, string(data))
}

func GetTokens() (*StoredCredentials, error) {
	raw, err := keyring.Get(serviceName, tokenKey)
	if err != nil {
		return nil, err
	}

	creds := &StoredCredentials{}
	if err := json.Unmarshal([]byte(raw), creds); err != nil {
		return nil, err
	}
	return creds, nil
}

func DeleteTokens() error {
	return keyring.Delete(serviceName, tokenKey)
}
