package router

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"diarydesk/internal/auth"
	"diarydesk/internal/cache"
	apperrors "diarydesk/internal/errors"
	"diarydesk/internal/handler"
	"diarydesk/internal/logger"
)

const (
	tooManyRequests     = "Too many requests from this IP, please try again later."
	tooManyAuthRequests = "Too many authentication attempts, please try again later."
)

// ErrorHandler renders every error as {success:false,error,code}. Internal
// errors carry their cause only outside production.
func ErrorHandler(log *logger.Logger, production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, production)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).
				Str("method", c.Request().Method).
				Str("uri", c.Request().RequestURI).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Error().Err(err).Msg("write error response")
		}
	}
}

func resolveError(err error, production bool) (int, apperrors.ErrorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := fmt.Sprint(he.Message)
		code := ""
		switch he.Code {
		case http.StatusNotFound:
			msg, code = "Route not found", "ROUTE_NOT_FOUND"
		case http.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		case http.StatusRequestEntityTooLarge:
			code = "PAYLOAD_TOO_LARGE"
		case http.StatusBadRequest:
			code = "INVALID_REQUEST"
		}
		if he.Code >= http.StatusInternalServerError {
			msg = "Internal Server Error"
		}
		return he.Code, apperrors.ErrorResponse{Error: msg, Code: code}
	}

	httpErr := apperrors.MapErrorToHTTP(err)
	resp := httpErr.ToErrorResponse()
	if httpErr.StatusCode == http.StatusInternalServerError && !production {
		resp.Error = httpErr.Message + ": " + err.Error()
	}
	return httpErr.StatusCode, resp
}

// JWTMiddleware verifies the auth-token (or bearer) header, rejects revoked
// tokens and stores *auth.Claims under handler.ClaimsContextKey.
func JWTMiddleware(jwtService *auth.JWTService, tokens auth.TokenStoreInterface) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  handler.ClaimsContextKey,
		TokenLookup: "header:auth-token,header:Authorization:Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
			}
			revoked, err := tokens.IsRevoked(c.Request().Context(), claims.ID)
			if err != nil {
				return nil, err
			}
			if revoked {
				return nil, fmt.Errorf("%w: revoked", apperrors.ErrInvalidToken)
			}
			return claims, nil
		},
		// Parse failures win over a missing header when both lookups ran.
		ErrorHandler: func(c echo.Context, err error) error {
			if errors.Is(err, apperrors.ErrInvalidToken) {
				return apperrors.ErrInvalidToken
			}
			return apperrors.ErrUnauthorized
		},
	})
}

// withUserContext copies the authenticated user id into the request context
// for handlers that only see *http.Request.
func withUserContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if claims, ok := c.Get(handler.ClaimsContextKey).(*auth.Claims); ok {
			req := c.Request()
			c.SetRequest(req.WithContext(auth.WithUserID(req.Context(), claims.UserID())))
		}
		return next(c)
	}
}

// contextLogger stores a request-scoped logger, tagged with the request id,
// in the request context for logger.FromContext.
func contextLogger(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqLog := log.With().
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Logger()
			req := c.Request()
			c.SetRequest(req.WithContext(reqLog.WithContext(req.Context())))
			return next(c)
		}
	}
}

// requestLogger writes one zerolog event per request.
func requestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

// RedisWindowStore is an echo rate limiter store counting requests per client
// in fixed windows shared through Redis. It allows everything when Redis is
// unreachable.
type RedisWindowStore struct {
	cache  *cache.Client
	prefix string
	window time.Duration
	max    int64
	now    func() time.Time
}

// NewRedisWindowStore allows max requests per window per identifier.
func NewRedisWindowStore(c *cache.Client, prefix string, window time.Duration, max int) *RedisWindowStore {
	return &RedisWindowStore{cache: c, prefix: prefix, window: window, max: int64(max), now: time.Now}
}

// Allow implements middleware.RateLimiterStore.
func (s *RedisWindowStore) Allow(identifier string) (bool, error) {
	slot := s.now().UnixNano() / int64(s.window)
	key := fmt.Sprintf("ratelimit:%s:%s:%d", s.prefix, identifier, slot)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	n, err := s.cache.Incr(ctx, key, s.window)
	if err != nil || n == 0 {
		return true, nil
	}
	return n <= s.max, nil
}

// clientIPExtractor resolves the address the limiter keys on. Forwarding
// headers are honoured only when the socket peer is one of the trusted proxies.
func clientIPExtractor(proxies []*net.IPNet) echo.IPExtractor {
	if len(proxies) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, p := range proxies {
		opts = append(opts, echo.TrustIPRange(p))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

// rateLimiter throttles by client IP, skipping loopback callers.
func rateLimiter(c *cache.Client, prefix string, window time.Duration, max int, message string) echo.MiddlewareFunc {
	var store middleware.RateLimiterStore
	if c.Enabled() {
		store = NewRedisWindowStore(c, prefix, window, max)
	} else {
		store = middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(float64(max) / window.Seconds()),
			Burst:     max,
			ExpiresIn: window,
		})
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			ip := net.ParseIP(c.RealIP())
			return ip != nil && ip.IsLoopback()
		},
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, apperrors.ErrorResponse{Error: message, Code: "RATE_LIMITED"})
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, apperrors.ErrorResponse{Error: "Unable to identify client", Code: "FORBIDDEN"})
		},
	})
}
