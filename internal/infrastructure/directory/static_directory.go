// Package directory provides identity directory implementations. The static
// directory grants every subject the same configured claim set; deployments
// with a real user store supply their own service.IdentityDirectory.
package directory

import (
	"context"

	"github.com/turtacn/tokenforge/internal/domain/service"
)

type staticDirectory struct {
	scopes      []string
	roles       []string
	permissions []string
}

// NewStaticDirectory returns a directory that answers every lookup with the
// given scopes, roles, and permissions.
func NewStaticDirectory(scopes, roles, permissions []string) service.IdentityDirectory {
	return &staticDirectory{
		scopes:      scopes,
		roles:       roles,
		permissions: permissions,
	}
}

func (d *staticDirectory) Lookup(_ context.Context, subject string) (*service.IdentitySnapshot, error) {
	return &service.IdentitySnapshot{
		Subject:     subject,
		Scopes:      d.scopes,
		Roles:       d.roles,
		Permissions: d.permissions,
	}, nil
}
