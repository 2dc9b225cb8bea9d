package queue

const TypeAuditRecord = "audit:record"

type AuditRecordPayload struct {
	Tenant    string            `json:"tenant"`
	SessionID string            `json:"session_id,omitempty"`
	Action    string            `json:"action"`
	Details   map[string]string `json:"details,omitempty"`
}
