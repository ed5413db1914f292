package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/cache"
	"github.com/gatehouse/gatehouse/internal/metrics"
	"github.com/gatehouse/gatehouse/internal/middleware"
	"github.com/gatehouse/gatehouse/internal/model"
	"github.com/gatehouse/gatehouse/internal/repository"
)

// OAuthProvider is the provider surface the handshake needs.
// Implemented by *auth.GoogleProvider.
type OAuthProvider interface {
	AuthURL(state, codeChallenge string) string
	Exchange(ctx context.Context, code, codeVerifier string) (string, error)
	FetchProfile(ctx context.Context, accessToken string) (*auth.Profile, error)
}

// LoginStateStore persists pending OAuth handshakes between the redirect
// and the callback. Implemented by *cache.Cache.
type LoginStateStore interface {
	SetLoginState(ctx context.Context, state string, ls *cache.LoginState) error
	GetLoginState(ctx context.Context, state string) (*cache.LoginState, error)
	DeleteLoginState(ctx context.Context, state string) error
}

// AuthConfig bundles the dependencies for AuthHandler.
type AuthConfig struct {
	Provider    OAuthProvider
	States      LoginStateStore
	Users       middleware.UserFinder
	Metrics     metrics.Recorder
	Logger      *slog.Logger
	Secret       []byte
	SessionTTL   time.Duration
	SecureCookie bool
}

// AuthHandler drives the Google sign-in flow and session endpoints.
type AuthHandler struct {
	provider     OAuthProvider
	states       LoginStateStore
	users        middleware.UserFinder
	metrics      metrics.Recorder
	logger       *slog.Logger
	secret       []byte
	sessionTTL   time.Duration
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg AuthConfig) *AuthHandler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthHandler{
		provider:     cfg.Provider,
		states:       cfg.States,
		users:        cfg.Users,
		metrics:      recorder,
		logger:       cfg.Logger,
		secret:       cfg.Secret,
		sessionTTL:   cfg.SessionTTL,
		secureCookie: cfg.SecureCookie,
	}
}

// Login handles GET /auth/google/login. It parks the PKCE verifier under a
// fresh state value and redirects to the consent screen.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := auth.NewState()
	if err != nil {
		h.logger.Error("login_state_generation_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An internal error occurred")
		return
	}

	verifier, err := auth.NewCodeVerifier()
	if err != nil {
		h.logger.Error("login_verifier_generation_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An internal error occurred")
		return
	}

	if err := h.states.SetLoginState(r.Context(), state, &cache.LoginState{CodeVerifier: verifier}); err != nil {
		h.logger.Error("login_state_store_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An internal error occurred")
		return
	}

	http.Redirect(w, r, h.provider.AuthURL(state, auth.ComputeS256Challenge(verifier)), http.StatusFound)
}

// Callback handles GET /auth/google/callback. Provider success is not
// enough: the account's email must already exist in the store, otherwise
// the sign-in is refused and no cookie is issued.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if providerErr := query.Get("error"); providerErr != "" {
		h.logger.Warn("oauth_provider_error", "error", providerErr)
		writeError(w, http.StatusBadRequest, "Sign-in was cancelled or failed")
		return
	}

	state := query.Get("state")
	code := query.Get("code")
	if state == "" || code == "" {
		writeError(w, http.StatusBadRequest, "Invalid callback request")
		return
	}

	pending, err := h.states.GetLoginState(r.Context(), state)
	if err != nil {
		h.logger.Error("login_state_lookup_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An internal error occurred")
		return
	}
	if pending == nil {
		writeError(w, http.StatusBadRequest, "Invalid or expired sign-in state")
		return
	}

	// States are single use, successful or not
	if err := h.states.DeleteLoginState(r.Context(), state); err != nil {
		h.logger.Warn("login_state_delete_failed", "error", err)
	}

	accessToken, err := h.provider.Exchange(r.Context(), code, pending.CodeVerifier)
	if err != nil {
		h.logger.Error("token_exchange_failed", "error", err)
		writeError(w, http.StatusBadGateway, "Sign-in failed")
		return
	}

	profile, err := h.provider.FetchProfile(r.Context(), accessToken)
	if err != nil {
		h.logger.Error("profile_fetch_failed", "error", err)
		writeError(w, http.StatusBadGateway, "Sign-in failed")
		return
	}

	email := model.NormalizeEmail(profile.Email)

	if _, err := h.users.GetUserByEmail(r.Context(), email); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			h.metrics.IncSignInRefused()
			h.logger.Warn("sign_in_refused", "reason", "not_on_allowlist")
			writeError(w, http.StatusForbidden, "Access denied")
			return
		}
		h.logger.Error("allowlist_lookup_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An internal error occurred")
		return
	}

	token, err := auth.GenerateSessionToken(email, h.secret, h.sessionTTL)
	if err != nil {
		h.logger.Error("session_token_generation_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An internal error occurred")
		return
	}

	h.setSessionCookie(w, token, h.sessionTTL)
	h.metrics.IncSignInAllowed()
	h.logger.Info("sign_in_allowed")

	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setSessionCookie(w, "", -time.Second)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Session handles GET /api/session. Runs behind RequireSession, so a
// session is always present here.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	if session == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, value string, ttl time.Duration) {
	cookie := &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl > 0 {
		cookie.MaxAge = int(ttl.Seconds())
	} else {
		cookie.MaxAge = -1
	}
	http.SetCookie(w, cookie)
}
