// Package httpkit holds the gin plumbing shared by every module: identity
// extraction, middleware and error rendering.
package httpkit

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity is the authenticated operator behind a request.
type Identity interface {
	UserID() uuid.UUID
	OrganizationID() uuid.UUID
	Roles() []string
	HasRole(role string) bool
	IsAuthenticated() bool
}

type identity struct {
	userID        uuid.UUID
	orgID         uuid.UUID
	roles         []string
	authenticated bool
}

func (i *identity) UserID() uuid.UUID         { return i.userID }
func (i *identity) OrganizationID() uuid.UUID { return i.orgID }
func (i *identity) Roles() []string           { return i.roles }
func (i *identity) HasRole(role string) bool  { return slices.Contains(i.roles, role) }
func (i *identity) IsAuthenticated() bool     { return i.authenticated }

// GetIdentity reads the values set by AuthRequired. The result is
// unauthenticated when they are missing or malformed.
func GetIdentity(c *gin.Context) Identity {
	rawUser, ok := c.Get(ContextUserIDKey)
	if !ok {
		return &identity{}
	}
	userID, ok := rawUser.(uuid.UUID)
	if !ok {
		return &identity{}
	}
	rawOrg, ok := c.Get(ContextOrganizationIDKey)
	if !ok {
		return &identity{}
	}
	orgID, ok := rawOrg.(uuid.UUID)
	if !ok {
		return &identity{}
	}

	var roles []string
	if raw, ok := c.Get(ContextRolesKey); ok {
		roles, _ = raw.([]string)
	}
	return &identity{userID: userID, orgID: orgID, roles: roles, authenticated: true}
}

// MustGetIdentity aborts with 401 and returns nil when no operator is bound
// to the request.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return nil
	}
	return id
}

// WithIdentity binds an identity without a token. Used by tests and by the
// worker when replaying a request on behalf of an operator.
func WithIdentity(c *gin.Context, userID, orgID uuid.UUID, roles ...string) {
	c.Set(ContextUserIDKey, userID)
	c.Set(ContextOrganizationIDKey, orgID)
	c.Set(ContextRolesKey, roles)
}
