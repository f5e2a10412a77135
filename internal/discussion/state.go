package discussion

// State is the lifecycle of a Scheduler
type State int

const (
	NotStarted State = iota
	Running
	Completed
	// Failed is terminal
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
