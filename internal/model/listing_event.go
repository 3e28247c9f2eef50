package model

import "time"

type ListingEventType string

const (
	ListingCreated ListingEventType = "created"
	ListingDeleted ListingEventType = "deleted"
)

// ListingEvent is the payload published to the listing event queue.
type ListingEvent struct {
	Type       ListingEventType `json:"type"`
	ListingID  string           `json:"listing_id"`
	OwnerID    uint             `json:"owner_id"`
	Game       string           `json:"game"`
	OccurredAt time.Time        `json:"occurred_at"`
}

type ListingActivity struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	UserID     uint             `gorm:"not null;index" json:"user_id"`
	ListingID  string           `gorm:"size:24;not null;index" json:"listing_id"`
	Action     ListingEventType `gorm:"size:16;not null" json:"action"`
	Game       string           `gorm:"size:128" json:"game"`
	OccurredAt time.Time        `gorm:"not null;index" json:"occurred_at"`
	CreatedAt  time.Time        `json:"created_at"`
}
