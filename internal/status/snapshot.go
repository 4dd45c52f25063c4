// internal/status/snapshot.go
package status

// Snapshot represents exactly what the writer is allowed to deliver.
type Snapshot struct {
	Health         uint16 `json:"health"`
	LastErrorCode  uint16 `json:"last_error_code"`
	SecondsInError uint16 `json:"seconds_in_error"`
	Running        bool   `json:"running"`
	Frames         uint32 `json:"frames"`
	Rejected       uint32 `json:"rejected"`
}

// HealthName returns a label for a health code.
func HealthName(h uint16) string {
	switch h {
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	case HealthStale:
		return "stale"
	case HealthDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}
