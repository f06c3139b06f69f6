package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Bakhromov-02/task-management/internal/core/domain"
	"github.com/Bakhromov-02/task-management/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new user account and returns a session.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Failure      429   {object}  ErrorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, authResponse{
		Token:        res.Token,
		RefreshToken: res.RefreshToken,
		User:         toUserResponse(res.User),
	})
}

// RegisterAdmin creates an admin account. Admin only.
//
// @Summary      Create an admin account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      registerRequest  true  "Admin account details"
// @Success      201   {object}  createAdminResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /api/auth/register/admin [post]
func (h *AuthHandler) RegisterAdmin(c echo.Context) error {
	actor, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.CreateAdmin(c.Request().Context(), actor, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createAdminResponse{User: toUserResponse(user), CreatedBy: actor.ID})
}

// Login authenticates a user and returns a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      429   {object}  ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{
		Token:        res.Token,
		RefreshToken: res.RefreshToken,
		User:         toUserResponse(res.User),
	})
}

// Refresh exchanges a refresh token for a new token pair.
//
// @Summary      Refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokenResponse{Token: res.Token, RefreshToken: res.RefreshToken})
}

// Profile returns the authenticated user.
//
// @Summary      Current user profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200   {object}  profileResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /api/auth/profile [get]
func (h *AuthHandler) Profile(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	user, err := h.authService.Profile(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profileResponse{User: toUserResponse(user)})
}

// ListUsers returns a page of users. Admin only.
//
// @Summary      List users
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int     false  "Page number"
// @Param        limit  query     int     false  "Page size"
// @Param        email  query     string  false  "Email contains (case-insensitive)"
// @Param        role   query     string  false  "Role"  Enums(user, admin)
// @Success      200    {object}  listUsersResponse
// @Failure      401    {object}  ErrorResponse
// @Failure      403    {object}  ErrorResponse
// @Router       /api/auth/users [get]
func (h *AuthHandler) ListUsers(c echo.Context) error {
	var req listUsersRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.ListUsers(c.Request().Context(), domain.UserQuery{
		Email: req.Email,
		Role:  domain.Role(req.Role),
		Page:  req.Page,
		Limit: req.Limit,
	})
	if err != nil {
		return err
	}

	items := make([]*userResponse, len(res.Items))
	for i, u := range res.Items {
		items[i] = toUserResponse(u)
	}
	return c.JSON(http.StatusOK, listUsersResponse{
		Items: items,
		Pagination: pagination{
			Page:       res.Page,
			Limit:      res.Limit,
			Total:      res.Total,
			TotalPages: res.TotalPages,
		},
	})
}
