package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "customerhub/internal/errors"
	"customerhub/internal/service"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// CustomerHandler serves customer listing and administration.
type CustomerHandler struct {
	svc service.CustomerService
}

// NewCustomerHandler creates a handler layer.
func NewCustomerHandler(svc service.CustomerService) *CustomerHandler {
	return &CustomerHandler{svc: svc}
}

// UpdateCustomerRequest represents an admin update. Omitted email or password is left as is;
// role is always applied and anything but "ADMIN" stores CUSTOMER.
type UpdateCustomerRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// ListCustomers godoc
// @Summary List customers
// @Tags customer
// @Produce json
// @Security BearerAuth
// @Param offset query int false "Offset" default(0)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} model.CustomerList
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /customer [get]
func (h *CustomerHandler) ListCustomers(c echo.Context) error {
	offset, size, err := pagination(c)
	if err != nil {
		return err
	}

	list, err := h.svc.GetAllCustomers(c.Request().Context(), offset, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// PublicList godoc
// @Summary List customers without authentication
// @Tags customer
// @Produce json
// @Param offset query int false "Offset" default(0)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} model.CustomerList
// @Failure 400 {object} errors.ErrorResponse
// @Router /customer/public-route [get]
func (h *CustomerHandler) PublicList(c echo.Context) error {
	return h.ListCustomers(c)
}

// GetCustomer godoc
// @Summary Get customer by email
// @Tags customer
// @Produce json
// @Security BearerAuth
// @Param email path string true "Customer email"
// @Success 200 {object} model.CustomerView
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /customer/{email} [get]
func (h *CustomerHandler) GetCustomer(c echo.Context) error {
	email, err := emailParam(c)
	if err != nil {
		return err
	}

	view, err := h.svc.GetCustomerByEmail(c.Request().Context(), email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// UpdateCustomer godoc
// @Summary Update customer
// @Tags customer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param email path string true "Customer email"
// @Param request body UpdateCustomerRequest true "Fields to change"
// @Success 200 {object} model.CustomerView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /customer/{email} [patch]
func (h *CustomerHandler) UpdateCustomer(c echo.Context) error {
	email, err := emailParam(c)
	if err != nil {
		return err
	}

	var req UpdateCustomerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.svc.UpdateCustomer(c.Request().Context(), email, service.CustomerPatch{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// DeleteCustomer godoc
// @Summary Delete customer
// @Tags customer
// @Security BearerAuth
// @Param email path string true "Customer email"
// @Success 204
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /customer/{email} [delete]
func (h *CustomerHandler) DeleteCustomer(c echo.Context) error {
	email, err := emailParam(c)
	if err != nil {
		return err
	}

	if _, err := h.svc.DeleteCustomer(c.Request().Context(), email); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// emailParam returns the decoded :email segment. echo routes on the raw path, so
// "a%40b.com" arrives still escaped.
func emailParam(c echo.Context) (string, error) {
	email, err := url.PathUnescape(c.Param("email"))
	if err != nil {
		return "", apperrors.InvalidInput("invalid email")
	}
	return email, nil
}

func pagination(c echo.Context) (offset, size int, err error) {
	offset, err = queryInt(c, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	size, err = queryInt(c, "size", defaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	if offset < 0 || size < 0 || size > maxPageSize {
		return 0, 0, apperrors.InvalidInput("offset must be >= 0 and size between 0 and " + strconv.Itoa(maxPageSize))
	}
	return offset, size, nil
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidInput("invalid " + name)
	}
	return v, nil
}
