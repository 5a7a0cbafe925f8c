package screen

// LoadState is the state machine shared by screens that load once on mount:
// Idle -> Loading -> Ready | Failed.
type LoadState int

const (
	Idle LoadState = iota
	Loading
	Ready
	Failed
)

func (s LoadState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
