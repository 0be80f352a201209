package auth

import (
	"fmt"
	"strings"

	"ciclo/internal/domain"

	"github.com/gin-gonic/gin"
)

// HeaderAuthenticator resolves the acting identity from headers set by the
// fronting identity verifier. The role stays raw here; normalization happens
// inside the kernel.
type HeaderAuthenticator struct{}

func NewHeaderAuthenticator() *HeaderAuthenticator {
	return &HeaderAuthenticator{}
}

func (h *HeaderAuthenticator) Authenticate(c *gin.Context) (domain.Actor, error) {
	actor := domain.Actor{
		ID:       strings.TrimSpace(c.GetHeader("X-Actor-ID")),
		Role:     strings.TrimSpace(c.GetHeader("X-Actor-Role")),
		TenantID: strings.TrimSpace(c.GetHeader("X-Tenant-ID")),
	}
	if actor.ID == "" || actor.TenantID == "" {
		return domain.Actor{}, fmt.Errorf("%w: actor and tenant headers required", domain.ErrUnauthenticated)
	}
	return actor, nil
}
