package router

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"customerhub/docs"
	"customerhub/internal/auth"
	"customerhub/internal/config"
	"customerhub/internal/handler"
	"customerhub/internal/model"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	logger *slog.Logger,
	guard *auth.AccessGuard,
	authHandler *handler.AuthHandler,
	customerHandler *handler.CustomerHandler,
) {
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler(logger)
	e.Validator = NewValidator()

	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	customers := e.Group("/customer")

	// Public routes
	customers.POST("/signup", authHandler.SignUp)
	customers.POST("/login", authHandler.Login)
	customers.POST("/refresh-token", authHandler.RefreshToken)
	customers.POST("/verify", authHandler.Verify)
	customers.GET("/public-route", customerHandler.PublicList)

	// Any authenticated customer
	customers.GET("/info", authHandler.Info, guard.Require())

	// Admin only
	admin := guard.Require(model.RoleAdmin)
	customers.GET("", customerHandler.ListCustomers, admin)
	customers.GET("/:email", customerHandler.GetCustomer, admin)
	customers.PATCH("/:email", customerHandler.UpdateCustomer, admin)
	customers.DELETE("/:email", customerHandler.DeleteCustomer, admin)
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			)
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
