package backups

import "time"

type Action string

const (
	ActionBackup  Action = "backup"
	ActionRestore Action = "restore"
	ActionCleanup Action = "cleanup"
)

type ActionRequest struct {
	Action Action `json:"action" binding:"required,oneof=backup restore cleanup"`
	Name   string `json:"name" binding:"omitempty,max=200"`
	Keep   int    `json:"keep" binding:"omitempty,min=1,max=1000"`
}

type BackupInfo struct {
	Name          string    `json:"name"`
	Date          string    `json:"date"`
	CreatedAt     time.Time `json:"createdAt"`
	Size          int64     `json:"size"`
	SizeFormatted string    `json:"sizeFormatted"`
}

type CreateResult struct {
	Name       string       `json:"name"`
	Size       int64        `json:"size"`
	Tables     []TableEntry `json:"tables"`
	TotalRows  int          `json:"totalRows"`
	Duration   string       `json:"duration"`
	Output     string       `json:"output,omitempty"`
	CommandErr string       `json:"commandError,omitempty"`
	Removed    []string     `json:"removed,omitempty"`
}

type RestoreResult struct {
	Name      string       `json:"name"`
	Tables    []TableEntry `json:"tables"`
	TotalRows int          `json:"totalRows"`
}

type UploadResult struct {
	Name      string       `json:"name"`
	Tables    []TableEntry `json:"tables"`
	TotalRows int          `json:"totalRows"`
	Restored  bool         `json:"restored"`
}

type EmergencyRequest struct {
	Action string `json:"action" binding:"required,oneof=update"`
}

type EmergencyInfo struct {
	Available   bool   `json:"available"`
	LastUpdate  string `json:"lastUpdate"`
	DBSize      string `json:"dbSize"`
	TablesCount int    `json:"tablesCount"`
	TotalRows   int    `json:"totalRows"`
	UpdatedBy   string `json:"updatedBy,omitempty"`
}

type Download struct {
	Filename    string
	ContentType string
	Body        []byte
}
