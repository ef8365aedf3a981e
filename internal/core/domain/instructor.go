package domain

import "time"

type Instructor struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	FacilityID     *int64    `json:"facility_id,omitempty"`
	Bio            string    `json:"bio"`
	HourlyPrice    float64   `json:"hourly_price"`
	ProfileImageID *string   `json:"profile_image_id,omitempty"`
	Rating         Rating    `json:"rating"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
