package models

import (
	"gorm.io/gorm"
)

// Route is a fixed bus route with point-in-time pricing. Pass amounts are
// captured from these prices at pass creation and never re-derived, so price
// edits only affect future passes.
type Route struct {
	gorm.Model
	Name        string  `json:"name" gorm:"column:name;not null"`
	DailyPrice  float64 `json:"dailyPrice" gorm:"column:daily_price;not null"`
	WeeklyPrice float64 `json:"weeklyPrice" gorm:"column:weekly_price;not null"`
	CreatedBy   uint    `json:"createdBy" gorm:"column:created_by;not null"`
}

// TableName specifies the table name
func (Route) TableName() string {
	return "routes"
}

// PriceFor returns the route's current price for a pass type.
func (r *Route) PriceFor(passType PassType) float64 {
	if passType == PassTypeWeekly {
		return r.WeeklyPrice
	}
	return r.DailyPrice
}

type Bus struct {
	gorm.Model
	BusNumber string `json:"busNumber" gorm:"column:bus_number;not null"`
	RouteID   uint   `json:"routeId" gorm:"column:route_id;not null;index"`
	CreatedBy uint   `json:"createdBy" gorm:"column:created_by;not null"`
	Route     *Route `json:"route,omitempty" gorm:"foreignKey:RouteID"`
}

// TableName specifies the table name
func (Bus) TableName() string {
	return "buses"
}
