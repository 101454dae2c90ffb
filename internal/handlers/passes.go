package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/campuslink/buspass-backend/internal/authz"
	"github.com/campuslink/buspass-backend/internal/models"
	"github.com/campuslink/buspass-backend/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// errActivePass enforces the one-active-pass rule inside the creation
// transaction.
var errActivePass = errors.New("user already holds an active pass")

func passResponse(p *models.Pass, withUser bool) gin.H {
	row := gin.H{
		"id":              p.ID,
		"user_id":         p.UserID,
		"route_id":        p.RouteID,
		"pass_type":       p.PassType,
		"amount":          p.Amount,
		"payment_status":  p.PaymentStatus,
		"approval_status": p.ApprovalStatus,
		"is_active":       p.IsActive,
		"active_at":       p.ActiveAt,
		"expires_at":      p.ExpiresAt,
		"created_at":      p.CreatedAt,
	}
	if p.Route != nil {
		row["route_name"] = p.Route.Name
	}
	if withUser && p.User != nil {
		row["user_name"] = p.User.Name
		row["user_email"] = p.User.Email
	}
	return row
}

// GetPasses lists passes. Students only ever see their own rows; admins see
// everything with user context joined.
func GetPasses(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := authorize(c, authz.ActionListPasses)
		if !ok {
			return
		}

		query := db.Preload("Route").Order("created_at DESC")
		withUser := false
		if session.Role == models.RoleStudent {
			query = query.Where("user_id = ?", session.UserID)
		} else {
			query = query.Preload("User")
			withUser = true
		}

		var passes []models.Pass
		if err := query.Find(&passes).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch passes"})
			return
		}

		rows := make([]gin.H, 0, len(passes))
		for i := range passes {
			rows = append(rows, passResponse(&passes[i], withUser))
		}

		c.JSON(200, gin.H{"passes": rows})
	}
}

// CreatePass handles a student's pass request. The amount is captured from the
// route's current price, and the one-active-pass rule is checked under row
// locks so two concurrent requests cannot both slip past it.
func CreatePass(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := authorize(c, authz.ActionCreatePass)
		if !ok {
			return
		}

		var input struct {
			RouteID  uint   `json:"route_id"`
			PassType string `json:"pass_type"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if input.RouteID == 0 || input.PassType == "" {
			c.JSON(400, gin.H{"error": "route_id and pass_type are required"})
			return
		}
		if !models.ValidPassType(input.PassType) {
			c.JSON(400, gin.H{"error": "pass_type must be daily or weekly"})
			return
		}

		var route models.Route
		if err := db.First(&route, input.RouteID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Route not found"})
			return
		}

		pass := models.NewPass(session.UserID, &route, models.PassType(input.PassType))
		err := db.Transaction(func(tx *gorm.DB) error {
			var existing []models.Pass
			if err := lockForUpdate(tx).
				Where("user_id = ?", session.UserID).
				Find(&existing).Error; err != nil {
				return err
			}
			now := time.Now()
			for i := range existing {
				if existing[i].ActiveNow(now) {
					return errActivePass
				}
			}
			return tx.Create(&pass).Error
		})
		if errors.Is(err, errActivePass) {
			c.JSON(409, gin.H{"error": "You already have an active pass"})
			return
		}
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to create pass"})
			return
		}

		hub.SendPassRequested(services.PassRequested{
			PassID:   pass.ID,
			UserID:   pass.UserID,
			RouteID:  pass.RouteID,
			PassType: pass.PassType,
			Amount:   pass.Amount,
		})

		c.JSON(200, gin.H{"success": true, "pass_id": pass.ID})
	}
}

// DecidePass approves or rejects a paid pass. Approval activates the pass and
// stamps both timestamps in the same update; a pass that is unpaid or already
// decided cannot be decided again.
func DecidePass(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authorize(c, authz.ActionDecidePass); !ok {
			return
		}

		passID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid pass id"})
			return
		}

		var input struct {
			Action string `json:"action"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if input.Action != "approve" && input.Action != "reject" {
			c.JSON(400, gin.H{"error": "action must be approve or reject"})
			return
		}

		var pass models.Pass
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := lockForUpdate(tx).First(&pass, passID).Error; err != nil {
				return err
			}

			updates := map[string]interface{}{}
			if input.Action == "approve" {
				if err := pass.Approve(time.Now()); err != nil {
					return err
				}
				updates["approval_status"] = pass.ApprovalStatus
				updates["is_active"] = pass.IsActive
				updates["active_at"] = pass.ActiveAt
				updates["expires_at"] = pass.ExpiresAt
			} else {
				if err := pass.Reject(); err != nil {
					return err
				}
				updates["approval_status"] = pass.ApprovalStatus
				updates["is_active"] = pass.IsActive
			}

			// The whole tuple lands in one UPDATE so no reader can observe an
			// approved pass without its expiry.
			return tx.Model(&models.Pass{}).Where("id = ?", pass.ID).Updates(updates).Error
		})
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(404, gin.H{"error": "Pass not found"})
			return
		}
		if errors.Is(err, models.ErrInvalidState) {
			c.JSON(409, gin.H{"error": "Pass must be paid and undecided"})
			return
		}
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to update pass"})
			return
		}

		event := services.PassDecided{
			PassID:         pass.ID,
			ApprovalStatus: pass.ApprovalStatus,
		}
		if pass.ExpiresAt != nil {
			event.ExpiresAt = pass.ExpiresAt.Format(time.RFC3339)
		}
		hub.SendPassDecided(pass.UserID, event)

		c.JSON(200, gin.H{"success": true})
	}
}

// DeletePass removes a pass and its ledger entries in one transaction. Admin
// only. Deleting an absent pass returns 404; the first delete wins.
func DeletePass(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authorize(c, authz.ActionDeletePass); !ok {
			return
		}

		passID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid pass id"})
			return
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			var pass models.Pass
			if err := lockForUpdate(tx).First(&pass, passID).Error; err != nil {
				return err
			}
			// Payments first, then the pass, so a failure leaves both behind.
			if err := tx.Where("pass_id = ?", pass.ID).Delete(&models.Payment{}).Error; err != nil {
				return err
			}
			return tx.Delete(&pass).Error
		})
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(404, gin.H{"error": "Pass not found"})
			return
		}
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to delete pass"})
			return
		}

		c.JSON(200, gin.H{"success": true})
	}
}
