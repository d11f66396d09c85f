package domain

import (
	"maps"
	"slices"
	"strings"
)

// RoomTable maps room ids to display names. It is supplied at startup and
// never modified afterwards.
type RoomTable map[int]string

func NewRoomTable(rooms map[int]string) RoomTable {
	return RoomTable(maps.Clone(rooms))
}

func (t RoomTable) Contains(id int) bool {
	_, ok := t[id]
	return ok
}

func (t RoomTable) Name(id int) (string, bool) {
	name, ok := t[id]
	return name, ok
}

// IDs returns the room ids in ascending order.
func (t RoomTable) IDs() []int {
	return slices.Sorted(maps.Keys(t))
}

// Lookup finds a room by display name, ignoring case.
func (t RoomTable) Lookup(name string) (int, bool) {
	for _, id := range t.IDs() {
		if strings.EqualFold(t[id], name) {
			return id, true
		}
	}
	return 0, false
}
