package domain

// Severity is the normalized status level of a source. Levels are ordered so
// that a higher value always means a worse condition; adapters must map
// vendor-specific strings into this type before state is stored.
type Severity int

// Severity levels.
const (
	// SeverityUnknown means no data has been observed yet. It sorts below
	// None but is excluded from worst-indicator selection unless every
	// source is unknown.
	SeverityUnknown Severity = -1

	SeverityNone     Severity = 0
	SeverityMinor    Severity = 1
	SeverityMajor    Severity = 2
	SeverityCritical Severity = 3
)

// String returns the Atlassian-style indicator name for the severity.
func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityMinor:
		return "minor"
	case SeverityMajor:
		return "major"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// IsIssue reports whether the severity counts as an active problem.
func (s Severity) IsIssue() bool {
	return s > SeverityNone
}

// ParseIndicator maps an Atlassian summary indicator string to a Severity.
// Unrecognized values map to SeverityUnknown.
func ParseIndicator(indicator string) Severity {
	switch indicator {
	case "none":
		return SeverityNone
	case "minor":
		return SeverityMinor
	case "maintenance":
		// Scheduled maintenance is surfaced as a minor issue, matching
		// how UNDERMAINTENANCE pages are treated.
		return SeverityMinor
	case "major":
		return SeverityMajor
	case "critical":
		return SeverityCritical
	default:
		return SeverityUnknown
	}
}

// WorstSeverity returns the highest severity in the set. Unknown entries are
// skipped; the result is SeverityUnknown only when every entry is unknown or
// the set is empty.
func WorstSeverity(severities []Severity) Severity {
	worst := SeverityUnknown
	for _, s := range severities {
		if s == SeverityUnknown {
			continue
		}
		if worst == SeverityUnknown || s > worst {
			worst = s
		}
	}
	return worst
}

// MarshalJSON encodes the severity as its indicator string.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}
