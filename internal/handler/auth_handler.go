package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"customerhub/internal/auth"
	apperrors "customerhub/internal/errors"
	"customerhub/internal/service"
)

// AuthHandler handles signup, activation and token endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SignUpRequest represents a customer signup request.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest represents a customer login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest represents a token refresh request.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// VerifyRequest represents an account activation request.
type VerifyRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Code     string `json:"code" validate:"required"`
}

// SignUp godoc
// @Summary Sign up a new customer
// @Description Creates an unactivated customer. The activation code is delivered out of band.
// @Tags customer
// @Accept json
// @Produce json
// @Param request body SignUpRequest true "Signup data"
// @Success 201 {object} model.CustomerView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /customer/signup [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req SignUpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.authService.SignUp(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, view)
}

// Login godoc
// @Summary Log in
// @Tags customer
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} service.TokenPair
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /customer/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	pair, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

// RefreshToken godoc
// @Summary Refresh access token
// @Description Issues a new access token. The refresh token is returned unchanged.
// @Tags customer
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "Refresh token"
// @Success 200 {object} service.TokenPair
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /customer/refresh-token [post]
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req RefreshTokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	pair, err := h.authService.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

// Verify godoc
// @Summary Activate an account
// @Tags customer
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Activation data"
// @Success 200 {object} model.CustomerView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /customer/verify [post]
func (h *AuthHandler) Verify(c echo.Context) error {
	var req VerifyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.authService.VerifyAccount(c.Request().Context(), req.Email, req.Password, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// Info godoc
// @Summary Current customer
// @Tags customer
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.CustomerInfoView
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /customer/info [get]
func (h *AuthHandler) Info(c echo.Context) error {
	claims, ok := auth.CustomerClaims(c)
	if !ok {
		return apperrors.Unauthenticated()
	}

	info, err := h.authService.GetUserInfo(c.Request().Context(), claims)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, info)
}
