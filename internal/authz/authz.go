// Package authz is the single authorization gate every mutation path goes
// through. It is a pure decision function: handlers resolve the identity and
// the target's owner, authz only decides.
package authz

import (
	"errors"

	"github.com/taskflow-dev/taskflow/internal/middleware"
	"github.com/taskflow-dev/taskflow/internal/models"
)

type Operation string

const (
	OpRead   Operation = "read"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrReadOnly        = errors.New("read-only role")
	ErrNotOwner        = errors.New("not owner")
)

// Authorize decides whether user may perform op on a resource owned by
// ownerID. Rules, in order: unauthenticated users are denied everything;
// reads are open to any authenticated user regardless of ownership; writes
// require an editor role and ownership. Callers creating a brand-new
// project pass their own ID as ownerID, since the caller becomes the owner.
// Creating a task targets the existing parent project, so its owner applies.
func Authorize(user *middleware.AuthenticatedUser, ownerID uint, op Operation) error {
	if user == nil {
		return ErrUnauthenticated
	}
	if op == OpRead {
		return nil
	}
	if user.Role == models.RoleReadOnly {
		return ErrReadOnly
	}
	if ownerID != user.ID {
		return ErrNotOwner
	}
	return nil
}
