package console

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/ponyo877/roomwatch/server/domain"
	"github.com/ponyo877/roomwatch/video"
	"github.com/rivo/tview"
)

const (
	statsRefresh = time.Second
	logBuffer    = 256
	eventBuffer  = 64
	thumbWidth   = 320
	thumbHeight  = 240
)

// Fleet is what the console needs from the fleet use case.
type Fleet interface {
	Kiosks() []domain.Kiosk
	Kiosk(name string) (domain.Kiosk, bool)
	Rooms() domain.RoomTable
	SendHint(ctx context.Context, name, text string) error
	RemoveKiosk(name string) error
}

type Assigner interface {
	AssignKioskToRoom(ctx context.Context, name string, roomID int) error
}

// Console is the operator's terminal UI: the kiosk list, the selected
// kiosk's stats and hint box, a room chooser and the kiosk's camera.
type Console struct {
	fleet     Fleet
	assigner  Assigner
	video     *video.Client
	videoPort int

	app        *tview.Application
	kioskTable *tview.Table
	statsView  *tview.TextView
	hintInput  *tview.InputField
	roomChoice *tview.DropDown
	videoView  *tview.Image
	logView    *tview.TextView
	details    *tview.Flex
	logLines   chan []byte
	events     chan domain.KioskEvent

	mu       sync.Mutex
	selected string
}

func New(fleet Fleet, assigner Assigner, client *video.Client, videoPort int) *Console {
	c := &Console{
		fleet:     fleet,
		assigner:  assigner,
		video:     client,
		videoPort: videoPort,
		app:       tview.NewApplication(),
		logLines:  make(chan []byte, logBuffer),
		events:    make(chan domain.KioskEvent, eventBuffer),
	}
	c.build()
	return c
}

func (c *Console) build() {
	c.kioskTable = tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0)
	c.kioskTable.SetBorder(true).SetTitle(" Online Kiosk Computers ")
	c.kioskTable.SetSelectionChangedFunc(func(row, column int) {
		if name := c.nameAt(row); name != "" {
			c.selectKiosk(name)
		}
	})
	c.kioskTable.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Rune() == 'd' {
			if name := c.Selected(); name != "" {
				if err := c.fleet.RemoveKiosk(name); err != nil {
					log.Printf("Error removing %s: %v", name, err)
				}
			}
			return nil
		}
		return event
	})

	c.statsView = tview.NewTextView()

	rooms := c.fleet.Rooms()
	ids := rooms.IDs()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i], _ = rooms.Name(id)
	}
	c.roomChoice = tview.NewDropDown().
		SetLabel("Assign room: ").
		SetOptions(names, func(text string, index int) {
			name := c.Selected()
			if name == "" || index < 0 || index >= len(ids) {
				return
			}
			if err := c.assigner.AssignKioskToRoom(context.Background(), name, ids[index]); err != nil {
				log.Printf("Error assigning %s: %v", name, err)
			}
		})

	c.hintInput = tview.NewInputField().
		SetLabel("Custom text hint: ").
		SetFieldWidth(0).
		SetAcceptanceFunc(tview.InputFieldMaxLength(256))
	c.hintInput.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		name := c.Selected()
		text := strings.TrimSpace(c.hintInput.GetText())
		if name == "" || text == "" {
			return
		}
		if err := c.fleet.SendHint(context.Background(), name, text); err != nil {
			log.Printf("Error sending hint to %s: %v", name, err)
			return
		}
		c.hintInput.SetText("")
	})

	c.videoView = tview.NewImage()
	c.videoView.SetBorder(true).SetTitle(" Camera ")

	c.logView = tview.NewTextView().
		SetScrollable(true)
	c.logView.SetBorder(true).SetTitle(" Log ")

	c.details = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(c.statsView, 2, 0, false).
		AddItem(c.roomChoice, 1, 0, false).
		AddItem(c.hintInput, 1, 0, false).
		AddItem(c.videoView, 0, 1, false)
	c.details.SetBorder(true).SetTitle(" " + noSelectionTitle + " ")

	body := tview.NewFlex().
		AddItem(c.kioskTable, 0, 1, true).
		AddItem(c.details, 0, 2, false)
	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(c.logView, 8, 0, false)

	focusables := []tview.Primitive{c.kioskTable, c.roomChoice, c.hintInput}
	c.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() != tcell.KeyTab {
			return event
		}
		current := c.app.GetFocus()
		for i, p := range focusables {
			if p == current {
				c.app.SetFocus(focusables[(i+1)%len(focusables)])
				return nil
			}
		}
		c.app.SetFocus(c.kioskTable)
		return nil
	})

	c.app.SetRoot(root, true).SetFocus(c.kioskTable)
	c.refreshTable()
	c.refreshDetails()
}

// LogWriter is where the process logger should write while the console
// runs. Lines are handed to the UI goroutine; when it falls behind, lines
// are dropped rather than blocking the caller.
func (c *Console) LogWriter() io.Writer {
	return logWriter(c.logLines)
}

type logWriter chan []byte

func (w logWriter) Write(p []byte) (int, error) {
	select {
	case w <- bytes.Clone(p):
	default:
	}
	return len(p), nil
}

func (c *Console) pumpLog(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case line := <-c.logLines:
			c.app.QueueUpdateDraw(func() {
				c.logView.Write(line)
				c.logView.ScrollToEnd()
			})
		}
	}
}

// Present implements domain.Presenter. It never blocks: events are drawn
// by the UI loop while Run is active and dropped once the queue is full.
// Every draw rereads the whole fleet, so a dropped event loses nothing.
func (c *Console) Present(event domain.KioskEvent) {
	select {
	case c.events <- event:
	default:
	}
}

func (c *Console) pumpEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.events:
			c.app.QueueUpdateDraw(c.refresh)
		}
	}
}

func (c *Console) refresh() {
	if name := c.Selected(); name != "" {
		if _, ok := c.fleet.Kiosk(name); !ok {
			c.clearSelection()
		}
	}
	c.refreshTable()
	c.refreshDetails()
}

func (c *Console) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

func (c *Console) nameAt(row int) string {
	if row < 1 {
		return ""
	}
	ref := c.kioskTable.GetCell(row, 0).GetReference()
	name, _ := ref.(string)
	return name
}

func (c *Console) refreshTable() {
	rows := kioskRows(c.fleet.Kiosks(), c.fleet.Rooms())
	selected := c.Selected()

	c.kioskTable.Clear()
	for col, title := range []string{"Room", "Computer", ""} {
		c.kioskTable.SetCell(0, col, tview.NewTableCell(title).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false))
	}
	for i, r := range rows {
		row := i + 1
		c.kioskTable.SetCell(row, 0, tview.NewTableCell(r.Room).
			SetAttributes(tcell.AttrBold).
			SetReference(r.Name))
		c.kioskTable.SetCell(row, 1, tview.NewTableCell("("+r.Name+")").
			SetAttributes(tcell.AttrItalic))
		c.kioskTable.SetCell(row, 2, tview.NewTableCell(r.Help).
			SetTextColor(tcell.ColorRed).
			SetAttributes(tcell.AttrBold))
		if r.Name == selected {
			c.kioskTable.Select(row, 0)
		}
	}
}

func (c *Console) refreshDetails() {
	name := c.Selected()
	k, ok := c.fleet.Kiosk(name)
	if name == "" || !ok {
		c.details.SetTitle(" " + noSelectionTitle + " ")
		c.statsView.SetText("")
		c.hintInput.SetDisabled(true)
		return
	}
	c.details.SetTitle(" " + k.Title(c.fleet.Rooms()) + " ")
	c.statsView.SetText(statsText(k))
	c.hintInput.SetDisabled(!hintEnabled(k, ok))
}

func (c *Console) selectKiosk(name string) {
	c.mu.Lock()
	changed := c.selected != name
	c.selected = name
	c.mu.Unlock()

	c.refreshDetails()
	if !changed {
		return
	}
	k, ok := c.fleet.Kiosk(name)
	if !ok || k.Address == "" {
		c.video.Disconnect()
		return
	}
	pending := c.video.ConnectAsync(context.Background(), k.Address, c.videoPort)
	go func() {
		if err := <-pending; err != nil && !errors.Is(err, video.ErrSuperseded) {
			log.Printf("Camera of %s unavailable: %v", name, err)
		}
	}()
}

func (c *Console) clearSelection() {
	c.mu.Lock()
	c.selected = ""
	c.mu.Unlock()
	c.video.Disconnect()
}

// pollVideo shows the newest camera frame until ctx is done.
func (c *Console) pollVideo(ctx context.Context) {
	for ctx.Err() == nil {
		if !c.video.Running() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(200 * time.Millisecond):
			}
			continue
		}
		img, ok := c.video.GetFrame(video.DefaultFrameWait)
		if !ok {
			continue
		}
		thumb := video.Thumbnail(img, thumbWidth, thumbHeight)
		c.app.QueueUpdateDraw(func() { c.showFrame(thumb) })
	}
}

func (c *Console) showFrame(img image.Image) {
	c.videoView.SetImage(img)
	st := c.video.Stats()
	c.videoView.SetTitle(fmt.Sprintf(" Camera %s (%d frames, %d dropped) ", c.video.Addr(), st.Frames, st.Dropped))
}

func (c *Console) refreshStats(ctx context.Context) {
	ticker := time.NewTicker(statsRefresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.app.QueueUpdateDraw(c.refreshDetails)
		}
	}
}

// Run blocks until the operator quits with Ctrl+C.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.video.Disconnect()

	go c.pumpLog(ctx)
	go c.pumpEvents(ctx)
	go c.pollVideo(ctx)
	go c.refreshStats(ctx)
	go func() {
		<-ctx.Done()
		c.app.Stop()
	}()
	return c.app.Run()
}
