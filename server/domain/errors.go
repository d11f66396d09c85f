package domain

import "errors"

var (
	ErrInvalidRoomID = errors.New("invalid room id")
	ErrKioskNotFound = errors.New("kiosk not found")
	ErrNotAssigned   = errors.New("kiosk is not assigned to a room")
	ErrEmptyHint     = errors.New("hint text is empty")
)
