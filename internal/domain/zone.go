package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CatalogItem is the sellable product a zone or service is billed as.
type CatalogItem struct {
	ProductRef string
	ListPrice  decimal.Decimal
}

// Zone is a bookable field of the park.
type Zone struct {
	ID           string
	Name         string
	CategoryID   string
	MinOccupants int
	MaxOccupants int
	Available    bool
	Catalog      CatalogItem
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Capacity is the head-count a zone contributes to a reservation.
func (z Zone) Capacity() int {
	return z.MaxOccupants
}

func (z Zone) Validate() error {
	if z.Name == "" {
		return NewValidationError("zone name is required")
	}
	if z.CategoryID == "" {
		return NewValidationError("zone category is required")
	}
	if z.MinOccupants <= 0 {
		return NewValidationError("zone capacity must be more than 0")
	}
	if z.MaxOccupants < z.MinOccupants {
		return NewValidationError("zone max occupants must not be below min occupants")
	}
	if z.Catalog.ListPrice.IsNegative() {
		return NewValidationError("zone price must not be negative")
	}
	return nil
}

// Category is a node of the zone type tree. Path is the materialized
// "Outdoor / Woodland / Small" name chain maintained by the tree.
type Category struct {
	ID       string
	Name     string
	ParentID string
	Path     string
}

type AmenityState string

const (
	AmenityAvailable AmenityState = "available"
	AmenityOccupied  AmenityState = "occupied"
)

type AmenityType struct {
	ID   string
	Name string
}

// Amenity is a non-field resource of the park (changing rooms, a bar, ...).
type Amenity struct {
	ID       string
	Name     string
	TypeID   string
	Capacity int
	State    AmenityState
	Catalog  CatalogItem
}

func (a Amenity) Validate() error {
	if a.Name == "" {
		return NewValidationError("amenity name is required")
	}
	if a.Capacity <= 0 {
		return NewValidationError("amenity capacity must be more than 0")
	}
	return nil
}

// ServiceOffering is a billable extra (paint, markers, instructor, ...).
type ServiceOffering struct {
	ID      string
	Name    string
	Catalog CatalogItem
}

func (s ServiceOffering) Validate() error {
	if s.Name == "" {
		return NewValidationError("service name is required")
	}
	if s.Catalog.ListPrice.IsNegative() {
		return NewValidationError("service price must not be negative")
	}
	return nil
}
