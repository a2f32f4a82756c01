package dashboard

import (
	"fmt"
	"time"

	"github.com/lox/weatherdash/internal/models"
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusErrored:
		return "errored"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// State is what the view layer renders. Snapshot is set only when Ready and
// Message only when Errored. Values handed out by the controller are copies;
// the Snapshot they point at is never modified.
type State struct {
	Status    Status           `json:"status"`
	Selected  models.Location  `json:"selected"`
	Snapshot  *models.Snapshot `json:"snapshot,omitempty"`
	Message   string           `json:"message,omitempty"`
	Seq       uint64           `json:"seq"`
	UpdatedAt time.Time        `json:"updatedAt"`
}
