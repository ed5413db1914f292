package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestGoogleProvider_AuthURL(t *testing.T) {
	p := NewGoogleProvider("client-id", "client-secret", "https://example.com/")

	raw := p.AuthURL("state-123", "challenge-456")
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("AuthURL produced invalid URL: %v", err)
	}

	query := parsed.Query()
	if query.Get("client_id") != "client-id" {
		t.Errorf("unexpected client_id: %q", query.Get("client_id"))
	}
	if query.Get("state") != "state-123" {
		t.Errorf("unexpected state: %q", query.Get("state"))
	}
	if query.Get("code_challenge") != "challenge-456" {
		t.Errorf("unexpected code_challenge: %q", query.Get("code_challenge"))
	}
	if query.Get("code_challenge_method") != "S256" {
		t.Errorf("unexpected code_challenge_method: %q", query.Get("code_challenge_method"))
	}
	if query.Get("redirect_uri") != "https://example.com/auth/google/callback" {
		t.Errorf("unexpected redirect_uri: %q", query.Get("redirect_uri"))
	}
	if query.Get("prompt") != "select_account" {
		t.Errorf("unexpected prompt: %q", query.Get("prompt"))
	}
}

func TestGoogleProvider_Exchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "authorization_code" {
			t.Errorf("unexpected grant_type: %q", r.PostForm.Get("grant_type"))
		}
		if r.PostForm.Get("code") != "the-code" {
			t.Errorf("unexpected code: %q", r.PostForm.Get("code"))
		}
		if r.PostForm.Get("code_verifier") != "the-verifier" {
			t.Errorf("unexpected code_verifier: %q", r.PostForm.Get("code_verifier"))
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "token-abc"})
	}))
	defer srv.Close()

	p := NewGoogleProvider("id", "secret", "https://example.com")
	p.tokenURL = srv.URL

	token, err := p.Exchange(context.Background(), "the-code", "the-verifier")
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if token != "token-abc" {
		t.Errorf("unexpected access token: %q", token)
	}
}

func TestGoogleProvider_Exchange_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewGoogleProvider("id", "secret", "https://example.com")
	p.tokenURL = srv.URL

	if _, err := p.Exchange(context.Background(), "bad-code", "v"); err == nil {
		t.Error("expected error for non-200 token response")
	}
}

func TestGoogleProvider_FetchProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-abc" {
			t.Errorf("unexpected Authorization header: %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"email": "alice@example.com",
			"name":  "Alice",
		})
	}))
	defer srv.Close()

	p := NewGoogleProvider("id", "secret", "https://example.com")
	p.userInfoURL = srv.URL

	profile, err := p.FetchProfile(context.Background(), "token-abc")
	if err != nil {
		t.Fatalf("FetchProfile failed: %v", err)
	}
	if profile.Email != "alice@example.com" {
		t.Errorf("unexpected email: %q", profile.Email)
	}
	if profile.Name != "Alice" {
		t.Errorf("unexpected name: %q", profile.Name)
	}
}

func TestGoogleProvider_FetchProfile_NoEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "No Email"})
	}))
	defer srv.Close()

	p := NewGoogleProvider("id", "secret", "https://example.com")
	p.userInfoURL = srv.URL

	if _, err := p.FetchProfile(context.Background(), "t"); err == nil {
		t.Error("expected error for profile without email")
	}
}

func TestComputeS256Challenge(t *testing.T) {
	// RFC 7636 appendix B example
	challenge := ComputeS256Challenge("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk")
	if challenge != "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM" {
		t.Errorf("unexpected challenge: %q", challenge)
	}
}

func TestRandomTokens_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		state, err := NewState()
		if err != nil {
			t.Fatalf("NewState failed: %v", err)
		}
		if strings.ContainsAny(state, "+/=") {
			t.Errorf("state %q is not base64url", state)
		}
		if seen[state] {
			t.Fatalf("duplicate state generated: %q", state)
		}
		seen[state] = true
	}
}
