package handlers

import (
	"github.com/campuslink/buspass-backend/internal/authz"
	"github.com/campuslink/buspass-backend/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetDrivers lists admins with the driver subtype so students can reach the
// driver on their route.
func GetDrivers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authorize(c, authz.ActionListDrivers); !ok {
			return
		}

		var admins []models.Admin
		if err := db.Where("admin_type = ?", models.AdminTypeDriver).
			Order("name").Find(&admins).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch drivers"})
			return
		}

		drivers := make([]gin.H, 0, len(admins))
		for i := range admins {
			drivers = append(drivers, gin.H{
				"id":    admins[i].ID,
				"name":  admins[i].Name,
				"phone": admins[i].Phone,
			})
		}

		c.JSON(200, gin.H{"drivers": drivers})
	}
}
