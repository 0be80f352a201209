package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"ciclo/internal/domain"
	"ciclo/internal/infra/ratelimit"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Authenticator interface {
	Authenticate(*gin.Context) (domain.Actor, error)
}

// AuthMiddleware resolves the actor and stores it on the request context.
// Role authorization stays inside the kernel; the middleware only
// authenticates.
func AuthMiddleware(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authenticator == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Code: "INTERNAL", Message: "auth misconfigured"})
			return
		}
		actor, err := authenticator.Authenticate(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Code: "UNAUTHENTICATED", Message: "authentication failed"})
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

func RateLimitMiddleware(limiter ratelimit.Limiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next()
			return
		}
		actor, ok := ActorFromContext(c)
		if !ok {
			return
		}
		decision, err := limiter.Allow(c.Request.Context(), "rl:"+actor.TenantID+":"+actor.ID, limit, window)
		if err != nil {
			// Limiter outage must not take the API down.
			c.Next()
			return
		}
		if !decision.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Code: "RATE_LIMITED", Message: "too many requests"})
			return
		}
		c.Next()
	}
}

func ActorFromContext(c *gin.Context) (domain.Actor, bool) {
	value, ok := c.Get(actorKey)
	if !ok {
		WriteErrorCode(c, http.StatusInternalServerError, "INTERNAL", "actor missing")
		return domain.Actor{}, false
	}
	actor, ok := value.(domain.Actor)
	if !ok {
		WriteErrorCode(c, http.StatusInternalServerError, "INTERNAL", "actor invalid")
		return domain.Actor{}, false
	}
	return actor, true
}

func RequireParam(c *gin.Context, name string) (string, bool) {
	value := strings.TrimSpace(c.Param(name))
	if value == "" {
		WriteErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", name+" is required")
		return "", false
	}
	return value, true
}

func WriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		WriteErrorCode(c, http.StatusUnauthorized, "UNAUTHENTICATED", err.Error())
	case errors.Is(err, domain.ErrPermissionDenied):
		WriteErrorCode(c, http.StatusForbidden, "PERMISSION_DENIED", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		WriteErrorCode(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrFailedPrecondition):
		WriteErrorCode(c, http.StatusPreconditionFailed, "FAILED_PRECONDITION", err.Error())
	case errors.Is(err, domain.ErrInvalidArgument):
		WriteErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
	default:
		WriteErrorCode(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func WriteErrorCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Code: code, Message: message})
}
