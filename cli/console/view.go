package console

import (
	"fmt"

	"github.com/ponyo877/roomwatch/server/domain"
)

const (
	noSelectionTitle = "No Room Selected"
	helpMarker       = "HINT REQUESTED"
)

// kioskRow is one line of the kiosk table.
type kioskRow struct {
	Name string
	Room string
	Help string
}

func kioskRows(kiosks []domain.Kiosk, rooms domain.RoomTable) []kioskRow {
	rows := make([]kioskRow, len(kiosks))
	for i, k := range kiosks {
		rows[i] = kioskRow{Name: k.Name, Room: k.RoomName(rooms)}
		if k.HelpRequested {
			rows[i].Help = helpMarker
		}
	}
	return rows
}

func statsText(k domain.Kiosk) string {
	return fmt.Sprintf("Time in room: %s\nHints requested: %d", k.Stats.RoomTimeString(), k.Stats.TotalHints)
}

// hintEnabled reports whether the hint input accepts text for k.
func hintEnabled(k domain.Kiosk, ok bool) bool {
	return ok && k.Assigned
}
