package service

import (
	"fmt"

	"github.com/rl1809/fitforfun/internal/core/domain"
)

const MaxCommentLength = 2000

type CreateUserRequest struct {
	FirstName string      `json:"first_name" validate:"required,max=100"`
	LastName  string      `json:"last_name" validate:"required,max=100"`
	Email     string      `json:"email" validate:"required,email,max=255"`
	Password  string      `json:"password" validate:"required,min=8,max=72"`
	Role      domain.Role `json:"role" validate:"omitempty,oneof=ROLE_USER ROLE_INSTRUCTOR ROLE_ADMIN"`
}

type UpdateUserRequest struct {
	FirstName string      `json:"first_name" validate:"required,max=100"`
	LastName  string      `json:"last_name" validate:"required,max=100"`
	Email     string      `json:"email" validate:"required,email,max=255"`
	Role      domain.Role `json:"role" validate:"omitempty,oneof=ROLE_USER ROLE_INSTRUCTOR ROLE_ADMIN"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type InstructorRequest struct {
	UserID      int64   `json:"user_id" validate:"required,gt=0"`
	FacilityID  *int64  `json:"facility_id" validate:"omitempty,gt=0"`
	Bio         string  `json:"bio" validate:"max=4000"`
	HourlyPrice float64 `json:"hourly_price" validate:"gte=0"`
}

type FacilityRequest struct {
	Name          string  `json:"name" validate:"required,max=255"`
	Email         string  `json:"email" validate:"required,email,max=255"`
	Mobile        string  `json:"mobile" validate:"required,max=64"`
	City          string  `json:"city" validate:"required,max=128"`
	Street        string  `json:"street" validate:"required,max=255"`
	Description   string  `json:"description" validate:"max=4000"`
	InstructorIDs []int64 `json:"instructor_ids" validate:"omitempty,dive,gt=0"`
}

type ShopItemRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description string  `json:"description" validate:"max=4000"`
	Category    string  `json:"category" validate:"required,max=128"`
	SportType   string  `json:"sport_type" validate:"required,max=128"`
	Price       float64 `json:"price" validate:"gte=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
}

type CommentRequest struct {
	CommenterID int64  `json:"commenter_id" validate:"required,gt=0"`
	Text        string `json:"text" validate:"max=2000"`
	Rate        int    `json:"rate" validate:"min=1,max=5"`
}

type ImageRequest struct {
	ImageID string `json:"image_id" validate:"required,max=255"`
}

func idKey(id int64) string {
	return fmt.Sprintf("id:%d", id)
}

func listKey(filter domain.ListFilter) string {
	return "list:" + filter.Signature()
}
