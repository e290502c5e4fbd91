package models

import "strings"

// RoomType is the category a room is sold as.
type RoomType string

const (
	RoomSingle RoomType = "Single"
	RoomCouple RoomType = "Couple"
	RoomLuxury RoomType = "Luxury"
	RoomSuite  RoomType = "Suite"
	RoomFamily RoomType = "Family"
)

// RoomTypes lists the accepted room types in display order.
var RoomTypes = []RoomType{RoomSingle, RoomCouple, RoomLuxury, RoomSuite, RoomFamily}

var roomTypeAliases = map[string]RoomType{
	"single":   RoomSingle,
	"solteiro": RoomSingle,
	"couple":   RoomCouple,
	"casal":    RoomCouple,
	"luxury":   RoomLuxury,
	"luxo":     RoomLuxury,
	"suite":    RoomSuite,
	"suíte":    RoomSuite,
	"family":   RoomFamily,
	"família":  RoomFamily,
	"familia":  RoomFamily,
}

// ParseRoomType resolves English names and the Portuguese labels used by the
// front desk into a RoomType.
func ParseRoomType(s string) (RoomType, bool) {
	t, ok := roomTypeAliases[strings.ToLower(strings.TrimSpace(s))]
	return t, ok
}

// Room is a sellable room keyed by its door number.
type Room struct {
	Number    string   `json:"number"`
	Type      RoomType `json:"type"`
	Price     float64  `json:"price"`
	InService bool     `json:"in_service"`
}
