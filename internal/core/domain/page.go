package domain

import (
	"fmt"
	"strings"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type Page[T any] struct {
	Items []T   `json:"items"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// ListFilter carries paging and the optional filters of the list endpoints.
// Pages are zero based.
type ListFilter struct {
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	Name      string `form:"name"`
	City      string `form:"city"`
	Category  string `form:"category"`
	SportType string `form:"sport"`
	// Available keeps only instructors who work at a facility.
	Available bool `form:"available"`
}

func (f ListFilter) Normalize() ListFilter {
	if f.Page < 0 {
		f.Page = 0
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	f.Name = strings.TrimSpace(f.Name)
	f.City = strings.TrimSpace(f.City)
	f.Category = strings.TrimSpace(f.Category)
	f.SportType = strings.TrimSpace(f.SportType)
	return f
}

func (f ListFilter) Offset() int {
	return f.Page * f.Limit
}

// Signature is the cache key of a list read.
func (f ListFilter) Signature() string {
	f = f.Normalize()
	return fmt.Sprintf("p:%d:l:%d:n:%s:c:%s:cat:%s:s:%s:a:%t",
		f.Page, f.Limit,
		strings.ToLower(f.Name), strings.ToLower(f.City),
		strings.ToLower(f.Category), strings.ToLower(f.SportType), f.Available)
}
