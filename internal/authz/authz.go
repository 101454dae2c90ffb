// Package authz is the single authorization gate. Every mutating handler asks
// it before touching the store, so role rules live in one table instead of
// being repeated per endpoint.
package authz

import (
	"errors"

	"github.com/campuslink/buspass-backend/internal/models"
)

var (
	// ErrUnauthorized means no valid session was presented.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden means the session's role may not perform the action.
	ErrForbidden = errors.New("insufficient permissions")
)

// Session is the verified identity attached to a request.
type Session struct {
	UserID uint
	Email  string
	Role   models.Role
}

type Action int

const (
	ActionCreatePass Action = iota
	ActionListPasses
	ActionDecidePass
	ActionDeletePass
	ActionCreatePayment
	ActionListPayments
	ActionCreateRoute
	ActionListRoutes
	ActionCreateBus
	ActionListBuses
	ActionListDrivers
)

// anyRole marks actions open to every authenticated user.
const anyRole = models.Role("")

// rules maps each action to the role required to perform it. Row-level
// restrictions (students see only their own passes, payments must target an
// owned pass) are query-scope policies applied by the handlers on top of this.
var rules = map[Action]models.Role{
	ActionCreatePass:    models.RoleStudent,
	ActionListPasses:    anyRole,
	ActionDecidePass:    models.RoleAdmin,
	ActionDeletePass:    models.RoleAdmin,
	ActionCreatePayment: models.RoleStudent,
	ActionListPayments:  models.RoleAdmin,
	ActionCreateRoute:   models.RoleAdmin,
	ActionListRoutes:    anyRole,
	ActionCreateBus:     models.RoleAdmin,
	ActionListBuses:     anyRole,
	ActionListDrivers:   models.RoleStudent,
}

// Authorize checks the session against the rule table.
func Authorize(session *Session, action Action) error {
	if session == nil || session.UserID == 0 {
		return ErrUnauthorized
	}
	required, ok := rules[action]
	if !ok {
		return ErrForbidden
	}
	if required != anyRole && session.Role != required {
		return ErrForbidden
	}
	return nil
}
