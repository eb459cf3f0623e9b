package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

// Firebase-style identity provider defaults.
const (
	DefaultJWKSURL     = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
	issuerPrefix       = "https://securetoken.google.com/"
	maxJWKSBodyBytes   = 1 << 20
	defaultKeyTTL      = time.Hour
	defaultHTTPTimeout = 10 * time.Second
	minRefetchInterval = 30 * time.Second
)

// JWKSConfig configures a JWKSVerifier.
type JWKSConfig struct {
	// ProjectID is the provider project; it forms the expected issuer and audience.
	ProjectID string
	// JWKSURL is where the provider publishes its signing keys.
	JWKSURL string
	// KeyTTL bounds how long fetched keys are reused.
	KeyTTL time.Duration
	// Leeway tolerates clock skew on exp/iat/nbf.
	Leeway     time.Duration
	HTTPClient *http.Client
}

// JWKSVerifier verifies RS256 ID tokens against keys published as a JWKS.
// Verification results are never cached; only the key set is.
type JWKSVerifier struct {
	cfg     JWKSConfig
	client  *http.Client
	refresh singleflight.Group

	mu        sync.Mutex
	keys      jose.JSONWebKeySet
	fetchedAt time.Time
	now       func() time.Time
}

// NewJWKSVerifier creates a JWKSVerifier.
func NewJWKSVerifier(cfg JWKSConfig) (*JWKSVerifier, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("identity project id is required")
	}
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = DefaultJWKSURL
	}
	if cfg.KeyTTL <= 0 {
		cfg.KeyTTL = defaultKeyTTL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &JWKSVerifier{cfg: cfg, client: client, now: time.Now}, nil
}

func (v *JWKSVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	var keyErr error
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid header")
		}
		key, err := v.key(ctx, kid)
		if err != nil {
			keyErr = err
		}
		return key, err
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(issuerPrefix+v.cfg.ProjectID),
		jwt.WithAudience(v.cfg.ProjectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.cfg.Leeway),
	)
	if err != nil {
		// Provider unreachable is not the caller's fault.
		var fetchErr *fetchError
		if errors.As(keyErr, &fetchErr) {
			return nil, keyErr
		}
		return nil, fmt.Errorf("%w: %v", ErrVerification, err)
	}
	return identityFromClaims(claims)
}

type fetchError struct{ err error }

func (e *fetchError) Error() string { return "fetch jwks: " + e.err.Error() }
func (e *fetchError) Unwrap() error { return e.err }

// key returns the public key for kid, refreshing the key set when it is
// stale or does not contain kid. Concurrent refreshes share one fetch, and
// the cache stays readable while it runs.
func (v *JWKSVerifier) key(ctx context.Context, kid string) (any, error) {
	key, found, stale := v.cachedKey(kid)
	if found {
		return key, nil
	}
	if !stale {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}

	res, err, _ := v.refresh.Do("jwks", func() (any, error) {
		set, err := v.fetch(ctx)
		if err != nil {
			return nil, err
		}
		v.mu.Lock()
		v.keys = set
		v.fetchedAt = v.now()
		v.mu.Unlock()
		return set, nil
	})
	if err != nil {
		return nil, &fetchError{err: err}
	}

	set := res.(jose.JSONWebKeySet)
	keys := set.Key(kid)
	if len(keys) == 0 {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}
	return keys[0].Key, nil
}

// cachedKey looks kid up in the cached set. stale reports whether a refetch
// is allowed.
func (v *JWKSVerifier) cachedKey(kid string) (key any, found, stale bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.fetchedAt.IsZero() {
		return nil, false, true
	}
	age := v.now().Sub(v.fetchedAt)
	if age >= v.cfg.KeyTTL {
		return nil, false, true
	}
	if keys := v.keys.Key(kid); len(keys) > 0 {
		return keys[0].Key, true, false
	}
	return nil, false, age >= minRefetchInterval
}

func (v *JWKSVerifier) fetch(ctx context.Context) (jose.JSONWebKeySet, error) {
	var set jose.JSONWebKeySet
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.JWKSURL, nil)
	if err != nil {
		return set, err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return set, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return set, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSBodyBytes))
	if err != nil {
		return set, err
	}
	if err := json.Unmarshal(body, &set); err != nil {
		return set, fmt.Errorf("decode: %w", err)
	}
	return set, nil
}
