package models

import "time"

// PatientSyncEvent is the message published after a record is reconciled
// with the FHIR server. It carries the canonical copy so consumers never
// need to re-fetch.
type PatientSyncEvent struct {
	LocalID   string         `json:"local_id"`
	ServerID  string         `json:"server_id"`
	Direction string         `json:"direction"`
	Record    *PatientRecord `json:"record"`
	SyncedAt  time.Time      `json:"synced_at"`
}

const (
	SyncDirectionUpload   = "upload"
	SyncDirectionDownload = "download"
)
