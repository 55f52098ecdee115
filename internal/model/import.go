package model

import "time"

// ImportStatus 导入任务状态
type ImportStatus string

const (
	ImportProcessing ImportStatus = "processing"
	ImportCompleted  ImportStatus = "completed"
	ImportFailed     ImportStatus = "failed"
)

// ImportLog 一次 Excel 导入的记录
type ImportLog struct {
	ID             string       `json:"id"`
	Filename       string       `json:"filename"`
	FileSize       int64        `json:"fileSize"`
	Mode           string       `json:"mode"`
	Status         ImportStatus `json:"status"`
	StartedAt      time.Time    `json:"startedAt"`
	CompletedAt    *time.Time   `json:"completedAt,omitempty"`
	ImportedSheets int          `json:"importedSheets"`
	SkippedSheets  int          `json:"skippedSheets"`
	TotalRows      int          `json:"totalRows"`
	ImportedRows   int          `json:"importedRows"`
	ErrorRows      int          `json:"errorRows"`
	ErrorMessage   string       `json:"errorMessage,omitempty"`
}
