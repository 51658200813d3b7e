package chat

import "context"

// Inquiry status values. The rank order is the legal direction of travel:
// the bridge drives new→read and {new,read}→replied; closed belongs to the
// admin layer and outranks everything the bridge sets, so an external close
// is never clobbered here.
const (
	StatusNew     = "new"
	StatusRead    = "read"
	StatusReplied = "replied"
	StatusClosed  = "closed"
)

var statusRank = map[string]int{
	StatusNew:     0,
	StatusRead:    1,
	StatusReplied: 2,
	StatusClosed:  3,
}

// StatusesBelow returns the statuses ranked strictly below target. Durable
// updaters use it to guard the write in the database, so two sessions
// advancing the same inquiry can never move its status backward no matter
// how their writes interleave.
func StatusesBelow(target string) []string {
	targetRank, ok := statusRank[target]
	if !ok {
		return nil
	}
	below := make([]string, 0, targetRank)
	for status, rank := range statusRank {
		if rank < targetRank {
			below = append(below, status)
		}
	}
	return below
}

// StatusUpdater persists an inquiry status. The routes package supplies the
// gorm-backed implementation against the inquiries table.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, inquiryID uint, status string) error
}

type StatusMachine struct {
	updater StatusUpdater
}

func NewStatusMachine(updater StatusUpdater) *StatusMachine {
	return &StatusMachine{updater: updater}
}

// Advance moves the inquiry to target when that is a forward step and
// returns the status after the call. Backward and unknown targets are
// silent no-ops: status only ever moves forward through the ladder.
func (m *StatusMachine) Advance(ctx context.Context, inquiryID uint, current, target string) (string, error) {
	currentRank, ok := statusRank[current]
	if !ok {
		currentRank = statusRank[StatusNew]
	}
	targetRank, ok := statusRank[target]
	if !ok || targetRank <= currentRank {
		return current, nil
	}
	if err := m.updater.UpdateStatus(ctx, inquiryID, target); err != nil {
		return current, err
	}
	return target, nil
}
