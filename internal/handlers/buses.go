package handlers

import (
	"github.com/campuslink/buspass-backend/internal/authz"
	"github.com/campuslink/buspass-backend/internal/models"
	"github.com/campuslink/buspass-backend/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func busResponse(buses []models.Bus) []gin.H {
	out := make([]gin.H, 0, len(buses))
	for i := range buses {
		b := &buses[i]
		row := gin.H{
			"id":         b.ID,
			"bus_number": b.BusNumber,
			"route_id":   b.RouteID,
			"created_by": b.CreatedBy,
			"created_at": b.CreatedAt,
		}
		if b.Route != nil {
			row["route_name"] = b.Route.Name
		}
		out = append(out, row)
	}
	return out
}

// GetBuses lists buses with their route names for any authenticated user.
func GetBuses(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authorize(c, authz.ActionListBuses); !ok {
			return
		}

		ctx := c.Request.Context()
		if buses, hit := services.CachedBuses(ctx); hit {
			c.JSON(200, gin.H{"buses": busResponse(buses)})
			return
		}

		var buses []models.Bus
		if err := db.Preload("Route").
			Joins("JOIN routes ON routes.id = buses.route_id").
			Order("routes.name, buses.bus_number").
			Find(&buses).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch buses"})
			return
		}
		services.CacheBuses(ctx, buses)

		c.JSON(200, gin.H{"buses": busResponse(buses)})
	}
}

// CreateBus assigns a bus number to a route. Admin only.
func CreateBus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := authorize(c, authz.ActionCreateBus)
		if !ok {
			return
		}

		var input struct {
			BusNumber string `json:"bus_number"`
			RouteID   uint   `json:"route_id"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if input.BusNumber == "" || input.RouteID == 0 {
			c.JSON(400, gin.H{"error": "bus_number and route_id are required"})
			return
		}

		var route models.Route
		if err := db.First(&route, input.RouteID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Route not found"})
			return
		}

		bus := models.Bus{
			BusNumber: input.BusNumber,
			RouteID:   route.ID,
			CreatedBy: session.UserID,
		}
		if err := db.Create(&bus).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to add bus"})
			return
		}
		services.InvalidateDirectory(c.Request.Context())

		c.JSON(200, gin.H{"success": true})
	}
}
