package model

import "time"

// CalibrationStatus 校准任务状态
type CalibrationStatus string

const (
	CalibrationRunning   CalibrationStatus = "running"
	CalibrationCompleted CalibrationStatus = "completed"
	CalibrationFailed    CalibrationStatus = "failed"
)

// CalibrationLog 一次自动校准的运行记录
type CalibrationLog struct {
	RunID               string            `json:"runId"`
	Status              CalibrationStatus `json:"status"`
	StartedAt           time.Time         `json:"startedAt"`
	CompletedAt         *time.Time        `json:"completedAt,omitempty"`
	TransactionsTotal   int               `json:"transactionsTotal"`
	TransactionsMatched int               `json:"transactionsMatched"`
	MissingBaselines    int               `json:"missingBaselines"`
	FloorRaises         int               `json:"floorRaises"`
	TierAdjustments     int               `json:"tierAdjustments"`
	ErrorMessage        string            `json:"errorMessage,omitempty"`
}
