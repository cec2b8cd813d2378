package types

import "time"

type BackupFile struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	SizeLabel string    `json:"sizeFormatted"`
	CreatedAt time.Time `json:"createdAt"`
}

type TableManifest struct {
	Name     string `json:"name"`
	Rows     int    `json:"rows"`
	File     string `json:"file"`
	Checksum string `json:"sha256"`
}

type BackupManifest struct {
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"createdAt"`
	CreatedBy string          `json:"createdBy,omitempty"`
	Tables    []TableManifest `json:"tables"`
}

func (m *BackupManifest) TotalRows() int {
	total := 0
	for _, t := range m.Tables {
		total += t.Rows
	}
	return total
}

type EmergencyBackupInfo struct {
	LastUpdate  time.Time `json:"lastUpdate"`
	DBSize      string    `json:"dbSize"`
	TablesCount int       `json:"collectionsCount"`
	TotalRows   int       `json:"totalDocs"`
	UpdatedBy   string    `json:"updatedBy"`
}
