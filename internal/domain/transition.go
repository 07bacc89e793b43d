package domain

// Transition classifies a change in a source's severity between two
// consecutive refreshes.
type Transition string

// Transitions.
const (
	// TransitionNone means no qualifying change happened.
	TransitionNone Transition = "none"
	// TransitionDegraded means the severity worsened.
	TransitionDegraded Transition = "degraded"
	// TransitionRecovered means the source returned fully to operational.
	TransitionRecovered Transition = "recovered"
	// TransitionInitialIncident means the first-ever observation of the
	// source found it non-operational.
	TransitionInitialIncident Transition = "initial_incident"
)

// Classify compares the previous indicator against the new one. A nil or
// Unknown previous means the source has no usable prior observation, so the
// new indicator is treated as the first one. Recovery is only signaled on a
// full return to None; partial improvement is deliberately silent to avoid
// noise while a source flaps between degraded levels.
func Classify(previous *Severity, next Severity) Transition {
	if previous == nil || *previous == SeverityUnknown {
		if next.IsIssue() {
			return TransitionInitialIncident
		}
		return TransitionNone
	}
	if next > *previous {
		return TransitionDegraded
	}
	if next < *previous && next == SeverityNone {
		return TransitionRecovered
	}
	return TransitionNone
}
