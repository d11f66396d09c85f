package adaptor

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/ponyo877/roomwatch/server/domain"
)

// API is the operator's HTTP surface: the same operations the console
// offers, plus journal queries and a live event feed.
type API struct {
	uc       Usecase
	assigner Assigner
	feed     *Feed
}

func NewAPI(uc Usecase, assigner Assigner, feed *Feed) *API {
	return &API{uc: uc, assigner: assigner, feed: feed}
}

func (a *API) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/kiosks", a.ListKiosks).Methods(http.MethodGet)
	api.HandleFunc("/kiosks/{name}", a.RemoveKiosk).Methods(http.MethodDelete)
	api.HandleFunc("/kiosks/{name}/assignment", a.AssignKiosk).Methods(http.MethodPost)
	api.HandleFunc("/kiosks/{name}/hint", a.SendHint).Methods(http.MethodPost)
	api.HandleFunc("/rooms", a.ListRooms).Methods(http.MethodGet)
	api.HandleFunc("/events", a.ListEvents).Methods(http.MethodGet)
	if a.feed != nil {
		r.HandleFunc("/ws", a.feed.ServeWS)
	}
	return r
}

type KioskView struct {
	Name          string    `json:"name"`
	Address       string    `json:"address,omitempty"`
	Room          string    `json:"room"`
	RoomID        int       `json:"room_id,omitempty"`
	Assigned      bool      `json:"assigned"`
	TotalHints    int       `json:"total_hints"`
	RoomTime      int       `json:"room_time"`
	RoomTimeText  string    `json:"room_time_text"`
	HelpRequested bool      `json:"help_requested"`
	LastSeen      time.Time `json:"last_seen"`
}

func NewKioskView(k domain.Kiosk, rooms domain.RoomTable) KioskView {
	return KioskView{
		Name:          k.Name,
		Address:       k.Address,
		Room:          k.RoomName(rooms),
		RoomID:        k.RoomID,
		Assigned:      k.Assigned,
		TotalHints:    k.Stats.TotalHints,
		RoomTime:      k.Stats.RoomTime,
		RoomTimeText:  k.Stats.RoomTimeString(),
		HelpRequested: k.HelpRequested,
		LastSeen:      k.LastSeen,
	}
}

type RoomView struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type EntryView struct {
	ID        string    `json:"id"`
	Kiosk     string    `json:"kiosk"`
	Kind      string    `json:"kind"`
	RoomID    int       `json:"room_id,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type AssignRequest struct {
	RoomID int `json:"room_id"`
}

type HintRequest struct {
	Text string `json:"text"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, ErrorResponse{Error: err.Error()})
}

// GET /api/kiosks
func (a *API) ListKiosks(w http.ResponseWriter, r *http.Request) {
	rooms := a.uc.Rooms()
	kiosks := a.uc.Kiosks()
	views := make([]KioskView, len(kiosks))
	for i, k := range kiosks {
		views[i] = NewKioskView(k, rooms)
	}
	writeJSON(w, http.StatusOK, views)
}

// GET /api/rooms
func (a *API) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms := a.uc.Rooms()
	views := make([]RoomView, 0, len(rooms))
	for _, id := range rooms.IDs() {
		name, _ := rooms.Name(id)
		views = append(views, RoomView{ID: id, Name: name})
	}
	writeJSON(w, http.StatusOK, views)
}

// POST /api/kiosks/{name}/assignment
func (a *API) AssignKiosk(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid JSON"))
		return
	}
	if err := a.assigner.AssignKioskToRoom(r.Context(), name, req.RoomID); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRoomID), errors.Is(err, domain.ErrKioskNotFound):
			writeError(w, http.StatusBadRequest, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	kiosk, _ := a.uc.Kiosk(name)
	writeJSON(w, http.StatusOK, NewKioskView(kiosk, a.uc.Rooms()))
}

// POST /api/kiosks/{name}/hint
func (a *API) SendHint(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var req HintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid JSON"))
		return
	}
	if err := a.uc.SendHint(r.Context(), name, req.Text); err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyHint):
			writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, domain.ErrNotAssigned):
			writeError(w, http.StatusConflict, err)
		default:
			writeError(w, http.StatusBadGateway, err)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DELETE /api/kiosks/{name}
func (a *API) RemoveKiosk(w http.ResponseWriter, r *http.Request) {
	if err := a.uc.RemoveKiosk(mux.Vars(r)["name"]); err != nil {
		if errors.Is(err, domain.ErrKioskNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/events?kiosk=&q=&limit=
func (a *API) ListEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	pattern := query.Get("q")
	if pattern != "" {
		if _, err := regexp.Compile(pattern); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	limit := 0
	if s := query.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	entries, err := a.uc.History(query.Get("kiosk"), pattern, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	views := make([]EntryView, len(entries))
	for i, e := range entries {
		views[i] = EntryView{
			ID:        e.ID,
			Kiosk:     e.Kiosk,
			Kind:      string(e.Kind),
			RoomID:    e.RoomID,
			Body:      e.Body,
			CreatedAt: e.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, views)
}
