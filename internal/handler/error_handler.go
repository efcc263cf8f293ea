package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "customerhub/internal/errors"
)

// ErrorHandler renders every error as {"statusCode":N,"message":"..."}.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		body := toResponse(err)
		if body.StatusCode >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request failed",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Path()),
				slog.String("error", err.Error()),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(body.StatusCode)
		} else {
			err = c.JSON(body.StatusCode, body)
		}
		if err != nil {
			logger.ErrorContext(c.Request().Context(), "write error response", slog.String("error", err.Error()))
		}
	}
}

func toResponse(err error) apperrors.ErrorResponse {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		message := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			message = s
		} else if he.Message != nil {
			message = fmt.Sprint(he.Message)
		}
		if he.Code >= http.StatusInternalServerError {
			message = "Internal server error"
		}
		return apperrors.ErrorResponse{StatusCode: he.Code, Message: message}
	}
	return apperrors.ToErrorResponse(err)
}

// bindAndValidate decodes the request body into req and runs struct validation.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperrors.InvalidInput("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return apperrors.Wrap(apperrors.KindInvalidInput, err.Error(), err)
	}
	return nil
}
