package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/madeeasy/coursehub/internal/core/domain"
	"github.com/madeeasy/coursehub/internal/core/ports"
)

// AuthClient calls the auth service: remote token validation for request
// filters and the partial-update sync leg of the profile saga.
type AuthClient struct {
	rest *REST
}

func NewAuthClient(baseURL string, timeout time.Duration, log zerolog.Logger) *AuthClient {
	return &AuthClient{rest: NewREST(baseURL, timeout, log)}
}

// ValidateAccessToken asks the auth service whether the token is currently
// usable. The endpoint answers a bare JSON boolean on 200.
func (c *AuthClient) ValidateAccessToken(ctx context.Context, accessToken string) (bool, error) {
	var valid bool
	path := "/auth-service/validate-access-token/" + url.PathEscape(accessToken)
	if err := c.rest.do(ctx, http.MethodPost, path, nil, &valid); err != nil {
		return false, err
	}
	return valid, nil
}

type patchPayload struct {
	FullName string   `json:"fullName,omitempty"`
	Email    string   `json:"email,omitempty"`
	Password string   `json:"password,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

type authUpdatePayload struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	Message      string `json:"message,omitempty"`
}

// PartialUpdate propagates a profile patch to the authoritative identity
// record. On an identity- or role-affecting change the auth service responds
// with a freshly regenerated token pair.
func (c *AuthClient) PartialUpdate(ctx context.Context, email string, patch ports.UserPatch) (*ports.AuthUpdateResult, error) {
	body := patchPayload{
		FullName: patch.FullName,
		Email:    patch.Email,
		Password: patch.Password,
		Phone:    patch.Phone,
		Roles:    patch.Roles,
	}

	var resp authUpdatePayload
	path := "/auth-service/partial-update/" + url.PathEscape(email)
	if err := c.rest.do(ctx, http.MethodPatch, path, body, &resp); err != nil {
		return nil, err
	}

	result := &ports.AuthUpdateResult{Message: resp.Message}
	if resp.AccessToken != "" {
		result.Pair = &domain.TokenPair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}
	}
	return result, nil
}
