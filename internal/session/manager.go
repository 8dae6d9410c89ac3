// Package session tracks which items a browser session has already rated.
//
// The session id lives in a signed gorilla/sessions cookie; the per-item
// flags live in a Flags store (Redis in production, process memory in dev).
package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	cookieName = "ratings"
	keyID      = "sid"
)

type Manager struct {
	store sessions.Store
}

// NewManager builds a cookie-backed session manager. secret signs the cookie.
func NewManager(secret string, ttl time.Duration, secure bool) *Manager {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{store: store}
}

// NewManagerWithStore is used when a different gorilla store is wanted.
func NewManagerWithStore(store sessions.Store) *Manager {
	return &Manager{store: store}
}

// ID returns the caller's session id, minting one and setting the cookie on first use.
func (m *Manager) ID(w http.ResponseWriter, r *http.Request) (string, error) {
	sess, err := m.store.Get(r, cookieName)
	if err != nil {
		// tampered or rotated-secret cookie: start over with a fresh session
		sess, err = m.store.New(r, cookieName)
		if sess == nil {
			return "", fmt.Errorf("open session: %w", err)
		}
	}

	if id, ok := sess.Values[keyID].(string); ok && id != "" {
		return id, nil
	}

	id := uuid.NewString()
	sess.Values[keyID] = id
	if err := sess.Save(r, w); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return id, nil
}
