package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/services/ratelimit"
)

// requestLogger logs one structured line per request.
func requestLogger(logger core.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(ctx echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request", map[string]interface{}{
				"method":    v.Method,
				"uri":       v.URI,
				"status":    v.Status,
				"latency":   v.Latency.String(),
				"remote_ip": v.RemoteIP,
			})
			return nil
		},
	})
}

// corsMiddleware allows any origin in development and the configured ones otherwise.
func corsMiddleware(conf *core.Config) echo.MiddlewareFunc {
	cfg := middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: conf.CORS.Credentials,
	}
	switch {
	case conf.Debug:
		cfg.AllowOrigins = []string{"*"}
	case len(conf.CORS.Origins) > 0:
		cfg.AllowOrigins = conf.CORS.Origins
	default:
		cfg.AllowOriginFunc = func(string) (bool, error) { return false, nil }
	}
	return middleware.CORSWithConfig(cfg)
}

type limiters struct {
	api    echo.MiddlewareFunc
	strict echo.MiddlewareFunc
}

func newLimiters(conf *core.Config, store LimiterStoreFunc) limiters {
	if !conf.RateLimit.Enabled {
		pass := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
		return limiters{api: pass, strict: pass}
	}
	if store == nil {
		store = func(_ string, limit int, window time.Duration) middleware.RateLimiterStore {
			return ratelimit.NewMemoryStore(limit, window)
		}
	}
	return limiters{
		api:    rateLimiter(store("api", conf.RateLimit.APIRequests, conf.RateLimit.APIWindow)),
		strict: rateLimiter(store("strict", conf.RateLimit.StrictRequests, conf.RateLimit.StrictWindow)),
	}
}

func rateLimiter(store middleware.RateLimiterStore) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			return errTooManyRequests
		},
	})
}
