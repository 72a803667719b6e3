package aggregator

// QueryPhase is the lifecycle phase of one logical query. Transitions run
// idle -> loading -> {success | error}; success and error re-enter loading
// only on an explicit retry or a dependency change, never on a timer.
type QueryPhase string

const (
	PhaseIdle    QueryPhase = "idle"
	PhaseLoading QueryPhase = "loading"
	PhaseSuccess QueryPhase = "success"
	PhaseError   QueryPhase = "error"
)

// QueryState is the render-ready status of one logical query.
type QueryState struct {
	Phase QueryPhase `json:"phase"`
	Error string     `json:"error,omitempty"`
}

func idleState() QueryState {
	return QueryState{Phase: PhaseIdle}
}

func loadingState() QueryState {
	return QueryState{Phase: PhaseLoading}
}

func successState() QueryState {
	return QueryState{Phase: PhaseSuccess}
}

func errorState(msg string) QueryState {
	return QueryState{Phase: PhaseError, Error: msg}
}
