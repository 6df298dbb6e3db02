package models

import (
	"time"

	"gorm.io/datatypes"
)

// Route is a named walking path shared by an account.
// OwnerID refers to Account.AccountID but is not enforced; owners may be missing.
type Route struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	OwnerID string `json:"user_id" gorm:"size:80;not null;index"`
	Name    string `json:"route_name" gorm:"size:120;not null"`

	// Path holds the serialized point list. Read it through DecodePath.
	Path datatypes.JSON `json:"-" gorm:"column:route_path"`

	RegionID    *string `json:"region_id" gorm:"size:10;index"`
	RoadTypeID  *string `json:"road_type_id" gorm:"size:10;index"`
	TransportID *string `json:"transport_id" gorm:"size:10;index"`
}

// Tags returns the categorical tags of the route.
func (r Route) Tags() Tags {
	return Tags{Region: r.RegionID, RoadType: r.RoadTypeID, Transport: r.TransportID}
}

// DecodedPath returns the stored path, or an empty path when the stored value is unusable.
func (r Route) DecodedPath() Path {
	return DecodePath(r.Path)
}
