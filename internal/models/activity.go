package models

import "time"

// Activity represents a single entry in the activity log.
type Activity struct {
	ID        int       `json:"id"`
	Action    string    `json:"action"`
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	ClientIP  string    `json:"client_ip"`
	Timestamp time.Time `json:"timestamp"`
}

// Activity actions
const (
	ActionUpload   = "upload"
	ActionDownload = "download"
	ActionDelete   = "delete"
)
