package client

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/madeeasy/coursehub/internal/core/ports"
)

// UserClient calls the user service. The auth service uses it for the
// remote-create leg of the signup saga.
type UserClient struct {
	rest *REST
}

func NewUserClient(baseURL string, timeout time.Duration, log zerolog.Logger) *UserClient {
	return &UserClient{rest: NewREST(baseURL, timeout, log)}
}

type profilePayload struct {
	ID       string   `json:"id"`
	FullName string   `json:"fullName"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Phone    string   `json:"phone"`
	Roles    []string `json:"roles"`
}

// CreateProfile creates the user-service profile record. The password field
// carries the bcrypt hash, never the plaintext.
func (c *UserClient) CreateProfile(ctx context.Context, in ports.ProfileInput) error {
	body := profilePayload{
		ID:       in.ID,
		FullName: in.FullName,
		Email:    in.Email,
		Password: in.Password,
		Phone:    in.Phone,
		Roles:    in.Roles,
	}
	var created profilePayload
	return c.rest.do(ctx, http.MethodPost, "/user-service/create", body, &created)
}
