package models

// AuditLog records mutating operations for traceability.
type AuditLog struct {
	Base
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null" json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	ClientIP     string `json:"client_ip"`
	Changes      string `json:"changes,omitempty"`
}
