package pb

import "google.golang.org/protobuf/types/known/timestamppb"

type HeartbeatRequest struct {
	ComputerName string `json:"computer_name"`
	TotalHints   int32  `json:"total_hints"`
	RoomTime     int32  `json:"room_time"`
}

func (x *HeartbeatRequest) GetComputerName() string {
	if x != nil {
		return x.ComputerName
	}
	return ""
}

func (x *HeartbeatRequest) GetTotalHints() int32 {
	if x != nil {
		return x.TotalHints
	}
	return 0
}

func (x *HeartbeatRequest) GetRoomTime() int32 {
	if x != nil {
		return x.RoomTime
	}
	return 0
}

type HeartbeatResponse struct {
	RoomID   int32 `json:"room_id"`
	Assigned bool  `json:"assigned"`
}

type HelpRequest struct {
	ComputerName string `json:"computer_name"`
}

func (x *HelpRequest) GetComputerName() string {
	if x != nil {
		return x.ComputerName
	}
	return ""
}

type SubscribeRequest struct {
	ComputerName string `json:"computer_name"`
}

func (x *SubscribeRequest) GetComputerName() string {
	if x != nil {
		return x.ComputerName
	}
	return ""
}

type NotificationKind string

const (
	NotificationAssignment NotificationKind = "assignment"
	NotificationHint       NotificationKind = "hint"
)

// Notification is pushed to subscribed kiosks. Text is empty for room
// assignments.
type Notification struct {
	Kind   NotificationKind       `json:"kind"`
	RoomID int32                  `json:"room_id"`
	Text   string                 `json:"text,omitempty"`
	SentAt *timestamppb.Timestamp `json:"sent_at,omitempty"`
}

func NewAssignmentNotification(roomID int) *Notification {
	return &Notification{
		Kind:   NotificationAssignment,
		RoomID: int32(roomID),
		SentAt: timestamppb.Now(),
	}
}

func NewHintNotification(roomID int, text string) *Notification {
	return &Notification{
		Kind:   NotificationHint,
		RoomID: int32(roomID),
		Text:   text,
		SentAt: timestamppb.Now(),
	}
}
