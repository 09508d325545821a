package monitor

import "time"

type Status struct {
	PostgreSQL  bool      `json:"postgresql"`
	Redis       bool      `json:"redis"`
	Audit       bool      `json:"audit"`
	AuditEvents int       `json:"audit_events"`
	LastCheck   time.Time `json:"last_check"`
}
