package favorites

// State is the reconciler's position in the load/page/refresh cycle
type State int

const (
	StateIdle        State = iota // Nothing loaded or requested
	StateLoading                  // First page in flight
	StatePopulated                // Store holds content; fan-out may still be running
	StateLoadingMore              // Next page in flight
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePopulated:
		return "populated"
	case StateLoadingMore:
		return "loading-more"
	default:
		return "unknown"
	}
}
