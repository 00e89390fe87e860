package schema

// LogEntry is an append-only audit record. Timestamp is RFC 3339.
type LogEntry struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	User      string `json:"user"`
	Details   string `json:"details"`
}
