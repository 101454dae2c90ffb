package handlers

import (
	"github.com/campuslink/buspass-backend/internal/authz"
	"github.com/campuslink/buspass-backend/internal/models"
	"github.com/campuslink/buspass-backend/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func routeResponse(routes []models.Route) []gin.H {
	out := make([]gin.H, 0, len(routes))
	for i := range routes {
		r := &routes[i]
		out = append(out, gin.H{
			"id":           r.ID,
			"name":         r.Name,
			"daily_price":  r.DailyPrice,
			"weekly_price": r.WeeklyPrice,
			"created_by":   r.CreatedBy,
			"created_at":   r.CreatedAt,
		})
	}
	return out
}

// GetRoutes lists the route directory for any authenticated user.
func GetRoutes(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authorize(c, authz.ActionListRoutes); !ok {
			return
		}

		ctx := c.Request.Context()
		if routes, hit := services.CachedRoutes(ctx); hit {
			c.JSON(200, gin.H{"routes": routeResponse(routes)})
			return
		}

		var routes []models.Route
		if err := db.Order("name").Find(&routes).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch routes"})
			return
		}
		services.CacheRoutes(ctx, routes)

		c.JSON(200, gin.H{"routes": routeResponse(routes)})
	}
}

// CreateRoute adds a route with its daily and weekly prices. Admin only.
func CreateRoute(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := authorize(c, authz.ActionCreateRoute)
		if !ok {
			return
		}

		// Pointers so an explicit 0 price passes the presence check.
		var input struct {
			Name        string   `json:"name"`
			DailyPrice  *float64 `json:"daily_price"`
			WeeklyPrice *float64 `json:"weekly_price"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if input.Name == "" || input.DailyPrice == nil || input.WeeklyPrice == nil {
			c.JSON(400, gin.H{"error": "name, daily_price and weekly_price are required"})
			return
		}
		if *input.DailyPrice < 0 || *input.WeeklyPrice < 0 {
			c.JSON(400, gin.H{"error": "Prices must be non-negative numbers"})
			return
		}

		route := models.Route{
			Name:        input.Name,
			DailyPrice:  *input.DailyPrice,
			WeeklyPrice: *input.WeeklyPrice,
			CreatedBy:   session.UserID,
		}
		if err := db.Create(&route).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to add route"})
			return
		}
		services.InvalidateDirectory(c.Request.Context())

		c.JSON(200, gin.H{"success": true})
	}
}
