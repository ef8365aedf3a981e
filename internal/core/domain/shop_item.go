package domain

import "time"

type ShopItem struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	SportType   string    `json:"sport_type"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	ImageID     *string   `json:"image_id,omitempty"`
	Rating      Rating    `json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
