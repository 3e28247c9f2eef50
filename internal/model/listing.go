package model

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	ListingDateLayout = "2006-01-02"
	ListingHourLayout = "15:04"
)

// Listing is a board-game session posting stored in the games collection.
// OwnerID references User.ID; deleting the user does not touch its listings.
type Listing struct {
	ID        primitive.ObjectID `json:"id"         bson:"_id,omitempty"`
	Game      string             `json:"game"       bson:"game"`
	Avatar    string             `json:"avatar"     bson:"avatar"`
	Date      string             `json:"date"       bson:"date"`
	Hour      string             `json:"hour"       bson:"hour"`
	Bio       string             `json:"bio"        bson:"bio"`
	OpenSeats int                `json:"open_seats" bson:"open_seats"`
	OwnerID   uint               `json:"owner_id"   bson:"owner_id"`
}
