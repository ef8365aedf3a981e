package domain

import (
	"fmt"
	"time"
)

const (
	MinRate = 1
	MaxRate = 5
)

type TargetKind string

const (
	TargetFacility   TargetKind = "facility"
	TargetInstructor TargetKind = "instructor"
	TargetShopItem   TargetKind = "shop-item"
)

// CommentTarget is the commentable entity a Comment and a Rating belong to.
type CommentTarget struct {
	Kind TargetKind `json:"kind"`
	ID   int64      `json:"id"`
}

func (t CommentTarget) String() string {
	return fmt.Sprintf("%s %d", t.Kind, t.ID)
}

type Comment struct {
	ID          int64         `json:"id"`
	CommenterID int64         `json:"commenter_id"`
	Target      CommentTarget `json:"target"`
	Text        string        `json:"text"`
	Rate        int           `json:"rate"`
	Created     time.Time     `json:"created"`
}

// Rating is the running mean of all accepted comment rates of one target.
type Rating struct {
	Value   float64 `json:"value"`
	Counter int     `json:"counter"`
	Version int     `json:"-"`
}

// With returns the rating after accepting one more comment. The old counter
// weighs the old mean and the new counter divides.
func (r Rating) With(rate int) Rating {
	return Rating{
		Value:   (r.Value*float64(r.Counter) + float64(rate)) / float64(r.Counter+1),
		Counter: r.Counter + 1,
		Version: r.Version,
	}
}
