package orchestrator

// State is the lifecycle position of a setup group and its work items.
type State int

const (
	StatePending State = iota
	StateSettingUp
	StateSetupFailed
	StateReady
	StateIterating
	StateCleaning
	StateDone
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSettingUp:
		return "setting-up"
	case StateSetupFailed:
		return "setup-failed"
	case StateReady:
		return "ready"
	case StateIterating:
		return "iterating"
	case StateCleaning:
		return "cleaning"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
