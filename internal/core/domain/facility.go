package domain

import "time"

type ImageKind string

const (
	ImageProfile ImageKind = "profile"
	ImageMap     ImageKind = "map"
)

type SportFacility struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Mobile         string    `json:"mobile"`
	City           string    `json:"city"`
	Street         string    `json:"street"`
	Description    string    `json:"description"`
	ProfileImageID *string   `json:"profile_image_id,omitempty"`
	MapImageID     *string   `json:"map_image_id,omitempty"`
	Rating         Rating    `json:"rating"`
	InstructorIDs  []int64   `json:"instructor_ids"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
