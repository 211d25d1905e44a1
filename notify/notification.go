package notify

import (
	"time"

	"github.com/rs/zerolog"
)

type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeInfo    Type = "info"
	TypeWarning Type = "warning"
)

// DefaultTitle is used when a caller does not supply a title.
func (t Type) DefaultTitle() string {
	switch t {
	case TypeSuccess:
		return "Success"
	case TypeError:
		return "Error"
	case TypeInfo:
		return "Information"
	case TypeWarning:
		return "Warning"
	}
	return "Notice"
}

// Notification is a transient user-facing event.
type Notification struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// Display renders a notification to the operator.
type Display interface {
	Display(n Notification)
}

// DisplayFunc adapts a function to Display.
type DisplayFunc func(n Notification)

func (f DisplayFunc) Display(n Notification) {
	f(n)
}

// LogDisplay writes notifications to a zerolog logger, levelled by type.
type LogDisplay struct {
	log zerolog.Logger
}

func NewLogDisplay(log zerolog.Logger) *LogDisplay {
	return &LogDisplay{log: log}
}

func (d *LogDisplay) Display(n Notification) {
	var ev *zerolog.Event
	switch n.Type {
	case TypeError:
		ev = d.log.Error()
	case TypeWarning:
		ev = d.log.Warn()
	default:
		ev = d.log.Info()
	}
	ev.Str("notification_id", n.ID).
		Str("type", string(n.Type)).
		Str("title", n.Title).
		Msg(n.Message)
}
