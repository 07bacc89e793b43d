package domain

// ProviderKind identifies the vendor API family a source implements.
type ProviderKind string

// Provider kinds.
const (
	ProviderStatuspage       ProviderKind = "statuspage"
	ProviderIncidentIOCompat ProviderKind = "incidentio-compat"
	ProviderIncidentIO       ProviderKind = "incidentio"
	ProviderInstatus         ProviderKind = "instatus"
)

// IsValid checks if the provider kind is valid.
func (p ProviderKind) IsValid() bool {
	switch p {
	case ProviderStatuspage, ProviderIncidentIOCompat, ProviderIncidentIO, ProviderInstatus:
		return true
	}
	return false
}

// LimitedHistory reports whether the provider is known to expose reduced
// incident detail. The incident.io compatibility layer serves the Atlassian
// endpoints but without full update granularity; the distinction only drives
// a presentation disclaimer, never adapter selection.
func (p ProviderKind) LimitedHistory() bool {
	return p == ProviderIncidentIOCompat || p == ProviderIncidentIO
}
