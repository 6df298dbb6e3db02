package store

import "gorm.io/gorm"

// Filters constrain routes by tag membership. An empty list leaves its dimension
// unconstrained; a route matches when each constrained tag is one of the listed codes.
type Filters struct {
	Regions    []string
	RoadTypes  []string
	Transports []string
}

// IsEmpty reports whether no dimension is constrained.
func (f Filters) IsEmpty() bool {
	return len(f.Regions) == 0 && len(f.RoadTypes) == 0 && len(f.Transports) == 0
}

func (f Filters) apply(q *gorm.DB) *gorm.DB {
	if len(f.Regions) > 0 {
		q = q.Where("routes.region_id IN ?", f.Regions)
	}
	if len(f.RoadTypes) > 0 {
		q = q.Where("routes.road_type_id IN ?", f.RoadTypes)
	}
	if len(f.Transports) > 0 {
		q = q.Where("routes.transport_id IN ?", f.Transports)
	}
	return q
}
