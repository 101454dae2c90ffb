package handlers

import (
	"errors"

	"github.com/campuslink/buspass-backend/internal/authz"
	"github.com/campuslink/buspass-backend/internal/models"
	"github.com/campuslink/buspass-backend/internal/services"
	"github.com/campuslink/buspass-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetPayments lists the payment ledger with pass, route and user context.
// Admin only.
func GetPayments(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authorize(c, authz.ActionListPayments); !ok {
			return
		}

		var payments []models.Payment
		if err := db.Preload("Pass").
			Preload("Pass.Route").
			Preload("Pass.User").
			Order("created_at DESC").
			Find(&payments).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch payments"})
			return
		}

		rows := make([]gin.H, 0, len(payments))
		for i := range payments {
			p := &payments[i]
			row := gin.H{
				"id":             p.ID,
				"pass_id":        p.PassID,
				"amount":         p.Amount,
				"payment_method": p.PaymentMethod,
				"transaction_id": p.TransactionID,
				"status":         p.Status,
				"created_at":     p.CreatedAt,
			}
			if p.Pass != nil {
				row["pass_type"] = p.Pass.PassType
				if p.Pass.Route != nil {
					row["route_name"] = p.Pass.Route.Name
				}
				if p.Pass.User != nil {
					row["user_name"] = p.Pass.User.Name
				}
			}
			rows = append(rows, row)
		}

		c.JSON(200, gin.H{"payments": rows})
	}
}

// CreatePayment records a payment against the student's own unpaid pass and
// flips the pass to paid. The ledger row and the status flip commit together.
func CreatePayment(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := authorize(c, authz.ActionCreatePayment)
		if !ok {
			return
		}

		var input struct {
			PassID        uint   `json:"pass_id"`
			PaymentMethod string `json:"payment_method"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if input.PassID == 0 || input.PaymentMethod == "" {
			c.JSON(400, gin.H{"error": "pass_id and payment_method are required"})
			return
		}

		var pass models.Pass
		payment := models.Payment{
			PaymentMethod: input.PaymentMethod,
			TransactionID: utils.GenerateTransactionID(),
			Status:        string(models.TransactionSuccess),
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			// Ownership is part of the lookup: a foreign pass id answers the
			// same 404 as a missing one.
			if err := lockForUpdate(tx).
				Where("id = ? AND user_id = ?", input.PassID, session.UserID).
				First(&pass).Error; err != nil {
				return err
			}
			if err := pass.MarkPaid(); err != nil {
				return err
			}
			payment.PassID = pass.ID
			payment.Amount = pass.Amount
			if err := tx.Create(&payment).Error; err != nil {
				return err
			}
			return tx.Model(&models.Pass{}).Where("id = ?", pass.ID).
				Update("payment_status", pass.PaymentStatus).Error
		})
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(404, gin.H{"error": "Pass not found"})
			return
		}
		if errors.Is(err, models.ErrInvalidState) {
			c.JSON(409, gin.H{"error": "Pass is already paid"})
			return
		}
		if err != nil {
			c.JSON(500, gin.H{"error": "Payment failed"})
			return
		}

		hub.SendPassPaid(services.PassPaid{
			PassID:        pass.ID,
			UserID:        pass.UserID,
			Amount:        payment.Amount,
			TransactionID: payment.TransactionID,
		})

		c.JSON(200, gin.H{
			"success":        true,
			"transaction_id": payment.TransactionID,
			"redirect":       "/student",
		})
	}
}
