package state

import (
	"encoding/json"
	"time"
)

// RoomCapacity is the number of members a room holds: the host and one guest.
const RoomCapacity = 2

// Room is one active match session.
type Room struct {
	Code         string
	HostID       string
	Members      []string
	GameState    json.RawMessage
	CreatedAt    time.Time
	LastUpdateAt time.Time
}

// HasMember reports whether id is one of the room's members.
func (r *Room) HasMember(id string) bool {
	for _, m := range r.Members {
		if m == id {
			return true
		}
	}
	return false
}

// Others returns every member except id.
func (r *Room) Others(id string) []string {
	others := make([]string, 0, len(r.Members))
	for _, m := range r.Members {
		if m != id {
			others = append(others, m)
		}
	}
	return others
}

func (r *Room) copy() *Room {
	c := *r
	c.Members = append([]string(nil), r.Members...)
	if r.GameState != nil {
		c.GameState = append(json.RawMessage(nil), r.GameState...)
	}
	return &c
}

// RoomSummary is the redacted view of a room served by the presence endpoint.
type RoomSummary struct {
	Code        string `json:"code"`
	MemberCount int    `json:"memberCount"`
	Host        string `json:"host"`
	AgeSeconds  int64  `json:"ageSeconds"`
}

// hostPrefixLength is how much of the host's connection id a summary shows.
const hostPrefixLength = 8

// Summary returns the room without its game state and with the host id shortened.
func (r *Room) Summary(now time.Time) RoomSummary {
	host := r.HostID
	if len(host) > hostPrefixLength {
		host = host[:hostPrefixLength]
	}
	return RoomSummary{
		Code:        r.Code,
		MemberCount: len(r.Members),
		Host:        host,
		AgeSeconds:  int64(now.Sub(r.CreatedAt) / time.Second),
	}
}

// Stats are aggregate counts across all live rooms.
type Stats struct {
	Rooms   int `json:"rooms"`
	Members int `json:"members"`
}
