package sync

import "github.com/studybridge/client-go/internal/model"

// PendingState tracks one optimistic message from local append to its final
// outcome.
type PendingState string

const (
	StatePending    PendingState = "pending"
	StateConfirmed  PendingState = "confirmed"
	StateRolledBack PendingState = "rolledback"
)

// pendingMessage is an optimistic local insertion awaiting reconciliation
// with server state. Transitions: pending -> confirmed (backend accepted,
// retired once a fetch shows the server copy) or pending -> rolledback
// (backend rejected, removed immediately).
type pendingMessage struct {
	msg   model.Message
	state PendingState
}

func (p *pendingMessage) confirm() {
	if p.state == StatePending {
		p.state = StateConfirmed
	}
}

func (p *pendingMessage) rollback() {
	if p.state == StatePending {
		p.state = StateRolledBack
	}
}

// matches reports whether a server message is the confirmed copy of this
// pending entry. The backend assigns no message id and does not echo the
// correlation id, so content plus direction is the best available key.
func (p *pendingMessage) matches(m model.Message) bool {
	return p.msg.Content == m.Content && p.msg.Direction == m.Direction
}
