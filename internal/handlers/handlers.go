package handlers

import (
	"errors"

	"github.com/campuslink/buspass-backend/internal/authz"
	"github.com/campuslink/buspass-backend/internal/middleware"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// authorize runs the request's session through the authorization gate and
// writes the 401/403 response itself on denial. Handlers bail out when ok is
// false. Ownership and row-level filters stay in the handlers' queries.
func authorize(c *gin.Context, action authz.Action) (*authz.Session, bool) {
	session := middleware.SessionFromContext(c)
	if err := authz.Authorize(session, action); err != nil {
		if errors.Is(err, authz.ErrUnauthorized) {
			c.JSON(401, gin.H{"error": "Authentication required"})
		} else {
			c.JSON(403, gin.H{"error": "Insufficient permissions"})
		}
		return nil, false
	}
	return session, true
}

// lockForUpdate takes row locks for read-then-write sequences. SQLite is
// single-writer and rejects FOR UPDATE, so the clause only applies on
// postgres.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
