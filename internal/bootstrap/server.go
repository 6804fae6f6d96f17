package bootstrap

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	httpecho "github.com/mohammadpnp/account-admin/internal/interfaces/http/echo"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type ServerConfig struct {
	BodyLimit  string
	AdminToken string
}

func NewHTTPServer(importHandler *httpecho.ImportHandler, accountHandler *httpecho.AccountHandler, logger *zap.Logger, cfg ServerConfig) *echo.Echo {
	if cfg.BodyLimit == "" {
		cfg.BodyLimit = "10M"
	}

	server := echo.New()
	server.HideBanner = true
	server.HidePort = true
	server.Validator = httpecho.NewValidator()
	server.HTTPErrorHandler = httpecho.ErrorHandler

	server.Use(middleware.Recover())
	server.Use(middleware.RequestID())
	server.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				logger.Error("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	}))
	server.Use(middleware.BodyLimit(cfg.BodyLimit))

	httpecho.RegisterRoutes(server, importHandler, accountHandler, cfg.AdminToken)

	server.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	server.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return server
}
