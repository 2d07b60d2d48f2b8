package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/madeeasy/coursehub/internal/core/domain"
	"github.com/madeeasy/coursehub/internal/core/ports"
)

// UserHandler exposes the user service's HTTP surface.
type UserHandler struct {
	userService ports.UserService
}

func NewUserHandler(userService ports.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Create stores a new profile. The auth service calls this during signup with
// a generated ID and a pre-hashed password; direct calls may omit the ID.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return domain.E(domain.KindValidation, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userService.CreateProfile(c.Request().Context(), ports.ProfileInput{
		ID:       req.ID,
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Roles:    req.Roles,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toUserResponse(user))
}

func (h *UserHandler) GetAll(c echo.Context) error {
	users, err := h.userService.GetAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponses(users))
}

func (h *UserHandler) GetByEmail(c echo.Context) error {
	user, err := h.userService.GetByEmail(c.Request().Context(), c.Param("email"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// PartialUpdate patches the profile locally and syncs the auth service. The
// response carries fresh tokens only when the patch changed identity data.
func (h *UserHandler) PartialUpdate(c echo.Context) error {
	email := c.Param("email")

	var req partialUpdateRequest
	if err := c.Bind(&req); err != nil {
		return domain.E(domain.KindValidation, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.userService.PartialUpdate(c.Request().Context(), email, ports.UserPatch{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Roles:    req.Roles,
	})
	if err != nil {
		return err
	}

	resp := userUpdateResponse{User: toUserResponse(result.User)}
	if result.Pair != nil {
		resp.AccessToken = result.Pair.AccessToken
		resp.RefreshToken = result.Pair.RefreshToken
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) Delete(c echo.Context) error {
	email := c.Param("email")
	if err := h.userService.Delete(c.Request().Context(), email); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{
		Message: fmt.Sprintf("user with email %s deleted successfully", email),
	})
}
