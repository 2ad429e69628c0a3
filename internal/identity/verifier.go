// Package identity resolves an inbound session credential to a locally
// provisioned user. Credential verification is delegated to an ORY
// Kratos compatible provider via its session introspection endpoint;
// this package never inspects the credential itself.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUnauthenticated covers every failure that cannot be distinguished
// from "no valid session": missing credential, provider rejection,
// expired session, or a malformed identity.
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the provider's view of the authenticated subject.
type Identity struct {
	ID          string
	Email       string
	DisplayName *string
}

// Verifier checks a session credential against the identity provider.
type Verifier interface {
	Whoami(ctx context.Context, cookie string) (*Identity, error)
}

type whoamiResponse struct {
	Active   bool `json:"active"`
	Identity struct {
		ID     string `json:"id"`
		Traits struct {
			Email string `json:"email"`
			Name  struct {
				First string `json:"first"`
				Last  string `json:"last"`
			} `json:"name"`
		} `json:"traits"`
	} `json:"identity"`
}

// KratosVerifier introspects sessions against GET /sessions/whoami.
type KratosVerifier struct {
	baseURL string
	client  *http.Client
}

// NewKratosVerifier builds a verifier for the given provider base URL.
func NewKratosVerifier(baseURL string, timeout time.Duration) *KratosVerifier {
	return &KratosVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Whoami forwards the session cookie to the provider. Any non-success
// outcome maps to ErrUnauthenticated; only transport-level failures
// reaching the provider surface as-is so callers can report a 5xx.
func (v *KratosVerifier) Whoami(ctx context.Context, cookie string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/sessions/whoami", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cookie", cookie)
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthenticated
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity provider returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return parseIdentity(body)
}

func parseIdentity(body []byte) (*Identity, error) {
	var session whoamiResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, ErrUnauthenticated
	}
	if !session.Active || session.Identity.ID == "" {
		return nil, ErrUnauthenticated
	}
	// A session without an email trait is treated as no session at all;
	// the resolver must never provision a partial identity.
	if session.Identity.Traits.Email == "" {
		return nil, ErrUnauthenticated
	}

	identity := &Identity{
		ID:    session.Identity.ID,
		Email: session.Identity.Traits.Email,
	}
	full := strings.TrimSpace(session.Identity.Traits.Name.First + " " + session.Identity.Traits.Name.Last)
	if full != "" {
		identity.DisplayName = &full
	}
	return identity, nil
}
