package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/madeeasy/coursehub/internal/api/metrics"
	"github.com/madeeasy/coursehub/internal/core/domain"
	"github.com/madeeasy/coursehub/internal/core/ports"
)

// AuthHandler exposes the auth service's HTTP surface. Handlers bind and
// validate, call the service, and map the result; error translation lives in
// the central error handler.
type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SignUp registers a new user and returns the initial token pair.
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return domain.E(domain.KindValidation, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	pair, err := h.authService.SignUp(c.Request().Context(), ports.SignUpInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Roles:    req.Roles,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toTokenPairResponse(pair))
}

// SignIn verifies credentials and rotates the token pair.
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return domain.E(domain.KindValidation, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	pair, err := h.authService.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toTokenPairResponse(pair))
}

// LogOut revokes every usable token the user holds.
func (h *AuthHandler) LogOut(c echo.Context) error {
	var req logOutRequest
	if err := c.Bind(&req); err != nil {
		return domain.E(domain.KindValidation, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.authService.LogOut(c.Request().Context(), req.Email, req.AccessToken); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "logged out successfully"})
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	refreshToken := c.Param("token")
	if refreshToken == "" {
		return domain.E(domain.KindValidation, "refresh token is required")
	}

	pair, err := h.authService.Refresh(c.Request().Context(), refreshToken)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toTokenPairResponse(pair))
}

// ValidateAccessToken answers with a bare JSON boolean. The response body is
// the verdict itself, not an envelope; peer services decode exactly that.
func (h *AuthHandler) ValidateAccessToken(c echo.Context) error {
	accessToken := c.Param("token")
	if accessToken == "" {
		return domain.E(domain.KindValidation, "access token is required")
	}

	valid, err := h.authService.ValidateAccessToken(c.Request().Context(), accessToken)
	if err != nil {
		return err
	}

	result := "invalid"
	if valid {
		result = "valid"
	}
	metrics.TokenValidationsTotal.WithLabelValues(result).Inc()

	return c.JSON(http.StatusOK, valid)
}

// PartialUpdate patches the authoritative identity record. Identity or role
// changes return a regenerated pair; otherwise a plain confirmation.
func (h *AuthHandler) PartialUpdate(c echo.Context) error {
	email := c.Param("email")

	var req partialUpdateRequest
	if err := c.Bind(&req); err != nil {
		return domain.E(domain.KindValidation, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.authService.PartialUpdate(c.Request().Context(), email, ports.UserPatch{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Roles:    req.Roles,
	})
	if err != nil {
		return err
	}

	if result.Pair != nil {
		return c.JSON(http.StatusOK, toTokenPairResponse(result.Pair))
	}
	return c.JSON(http.StatusOK, messageResponse{Message: result.Message})
}
