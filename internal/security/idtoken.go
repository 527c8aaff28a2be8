package security

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidIDToken is returned for any ID token that fails verification
var ErrInvalidIDToken = errors.New("invalid ID token")

// Identity is the verified subject of an ID token
type Identity struct {
	Subject string
	Email   string
	Name    string
}

type idTokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Nonce string `json:"nonce"`
	jwt.RegisteredClaims
}

type jwkSet struct {
	Keys []struct {
		Kty string `json:"kty"`
		Kid string `json:"kid"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

// IDTokenVerifier validates RS256 ID tokens against a JWKS endpoint. Keys are
// cached and refetched when an unknown key ID appears or the cache expires.
type IDTokenVerifier struct {
	jwksURL  string
	issuers  []string
	audience string
	client   *http.Client
	cacheTTL time.Duration

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewIDTokenVerifier creates a verifier. issuer may list equivalent issuer
// strings (Google uses both "accounts.google.com" and its https form).
func NewIDTokenVerifier(jwksURL, audience string, issuers ...string) *IDTokenVerifier {
	return &IDTokenVerifier{
		jwksURL:  jwksURL,
		issuers:  issuers,
		audience: audience,
		client:   &http.Client{Timeout: 10 * time.Second},
		cacheTTL: time.Hour,
		keys:     make(map[string]*rsa.PublicKey),
	}
}

// Verify checks signature, expiry, issuer, audience and, when nonce is not
// empty, the nonce claim
func (v *IDTokenVerifier) Verify(ctx context.Context, idToken, nonce string) (Identity, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"RS256"}), jwt.WithExpirationRequired())
	claims := &idTokenClaims{}

	parsed, err := parser.ParseWithClaims(idToken, claims, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing key id")
		}
		return v.publicKey(ctx, kid)
	})
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}

	if len(v.issuers) > 0 && !slices.Contains(v.issuers, claims.Issuer) {
		return Identity{}, fmt.Errorf("%w: issuer %q", ErrInvalidIDToken, claims.Issuer)
	}
	if v.audience != "" && !slices.Contains([]string(claims.Audience), v.audience) {
		return Identity{}, fmt.Errorf("%w: audience", ErrInvalidIDToken)
	}
	if nonce != "" && claims.Nonce != nonce {
		return Identity{}, fmt.Errorf("%w: nonce", ErrInvalidIDToken)
	}
	if claims.Subject == "" || claims.Email == "" {
		return Identity{}, fmt.Errorf("%w: subject or email missing", ErrInvalidIDToken)
	}

	return Identity{Subject: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
}

func (v *IDTokenVerifier) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if key, ok := v.keys[kid]; ok && time.Since(v.fetchedAt) < v.cacheTTL {
		return key, nil
	}

	keys, err := v.fetchKeys(ctx)
	if err != nil {
		return nil, err
	}
	v.keys = keys
	v.fetchedAt = time.Now()

	key, ok := keys[kid]
	if !ok {
		return nil, fmt.Errorf("public key %q not found", kid)
	}
	return key, nil
}

func (v *IDTokenVerifier) fetchKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch signing keys: status %d", resp.StatusCode)
	}

	var set jwkSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, err
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		modulus, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			return nil, err
		}
		exponentBytes, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil {
			return nil, err
		}
		exponent := 0
		for _, b := range exponentBytes {
			exponent = exponent*256 + int(b)
		}
		keys[k.Kid] = &rsa.PublicKey{N: new(big.Int).SetBytes(modulus), E: exponent}
	}
	return keys, nil
}
