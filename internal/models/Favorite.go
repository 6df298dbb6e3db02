package models

import "time"

// Favorite marks a route as preferred by an account. The (AccountID, RouteID) pair is unique.
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	AccountID string `json:"user_id" gorm:"size:80;not null;uniqueIndex:idx_favorites_account_route"`
	RouteID   uint   `json:"route_id" gorm:"not null;index;uniqueIndex:idx_favorites_account_route"`

	// Associations
	Account *Account `gorm:"foreignKey:AccountID;references:AccountID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Route   *Route   `gorm:"foreignKey:RouteID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
