package domain

import (
	"context"
	"errors"
)

// Notifier carries operator decisions to kiosks. Delivery is fire and
// forget; an error only means the message could not be handed off.
type Notifier interface {
	SendRoomAssignment(ctx context.Context, kiosk string, roomID int) error
	SendHint(ctx context.Context, roomID int, text string) error
}

// MultiNotifier sends through every notifier. A send succeeds when any
// notifier handed the message off; otherwise the errors are joined.
type MultiNotifier []Notifier

func (m MultiNotifier) SendRoomAssignment(ctx context.Context, kiosk string, roomID int) error {
	return m.each(func(n Notifier) error { return n.SendRoomAssignment(ctx, kiosk, roomID) })
}

func (m MultiNotifier) SendHint(ctx context.Context, roomID int, text string) error {
	return m.each(func(n Notifier) error { return n.SendHint(ctx, roomID, text) })
}

func (m MultiNotifier) each(send func(Notifier) error) error {
	var errs []error
	for _, n := range m {
		if err := send(n); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) < len(m) {
		return nil
	}
	return errors.Join(errs...)
}
