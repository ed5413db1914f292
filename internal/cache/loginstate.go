package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	// loginStatePrefix is the Redis key prefix for pending OAuth logins.
	loginStatePrefix = "login:state:"
	// loginStateTTL bounds how long an OAuth handshake may stay pending.
	loginStateTTL = 15 * time.Minute
)

// LoginState holds the server side of a pending OAuth handshake: the PKCE
// verifier tied to the opaque state value sent to the provider.
type LoginState struct {
	CodeVerifier string `json:"code_verifier"`
}

// SetLoginState stores a pending login keyed by its state value.
func (c *Cache) SetLoginState(ctx context.Context, state string, ls *LoginState) error {
	data, err := json.Marshal(ls)
	if err != nil {
		return fmt.Errorf("marshal login state: %w", err)
	}

	return c.client.Set(ctx, loginStatePrefix+state, data, loginStateTTL).Err()
}

// GetLoginState retrieves a pending login by state value.
// Returns nil if not found or expired (a stale or forged state).
func (c *Cache) GetLoginState(ctx context.Context, state string) (*LoginState, error) {
	data, err := c.client.Get(ctx, loginStatePrefix+state).Bytes()
	if err != nil {
		// Miss is not an error; the callback treats it as an invalid state
		return nil, nil //nolint:nilerr
	}

	var ls LoginState
	if err := json.Unmarshal(data, &ls); err != nil {
		// Corrupted entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &ls, nil
}

// DeleteLoginState removes a pending login. States are single use: the
// callback deletes the state whether or not the handshake succeeds.
func (c *Cache) DeleteLoginState(ctx context.Context, state string) error {
	return c.client.Del(ctx, loginStatePrefix+state).Err()
}
