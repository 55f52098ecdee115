package store

import (
	"database/sql"

	"github.com/rotisserie/eris"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
)

// CreateCalibrationLog 创建校准运行记录
func (s *Store) CreateCalibrationLog(log *model.CalibrationLog) error {
	_, err := s.db.Exec(`
		INSERT INTO calibration_logs (run_id, status, started_at)
		VALUES (?, ?, ?)
	`, log.RunID, string(log.Status), log.StartedAt)
	if err != nil {
		return eris.Wrap(err, "failed to create calibration log")
	}
	return nil
}

// UpdateCalibrationLog 更新校准运行结果
func (s *Store) UpdateCalibrationLog(log *model.CalibrationLog) error {
	res, err := s.db.Exec(`
		UPDATE calibration_logs SET
			status = ?,
			transactions_total = ?,
			transactions_matched = ?,
			missing_baselines = ?,
			floor_raises = ?,
			tier_adjustments = ?,
			error_message = ?,
			completed_at = ?
		WHERE run_id = ?
	`, string(log.Status), log.TransactionsTotal, log.TransactionsMatched, log.MissingBaselines,
		log.FloorRaises, log.TierAdjustments, log.ErrorMessage, log.CompletedAt, log.RunID)
	if err != nil {
		return eris.Wrap(err, "failed to update calibration log")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Wrapf(ErrNotFound, "calibration log %s", log.RunID)
	}
	return nil
}

// ListCalibrationLogs 最近的校准记录，新的在前；limit <= 0 时返回全部
func (s *Store) ListCalibrationLogs(limit int) ([]*model.CalibrationLog, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT run_id, status, started_at, completed_at,
			transactions_total, transactions_matched, missing_baselines,
			floor_raises, tier_adjustments, error_message
		FROM calibration_logs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "failed to query calibration logs")
	}
	defer rows.Close()

	result := []*model.CalibrationLog{}
	for rows.Next() {
		l := &model.CalibrationLog{}
		var status string
		var completed sql.NullTime
		if err := rows.Scan(&l.RunID, &status, &l.StartedAt, &completed,
			&l.TransactionsTotal, &l.TransactionsMatched, &l.MissingBaselines,
			&l.FloorRaises, &l.TierAdjustments, &l.ErrorMessage); err != nil {
			return nil, eris.Wrap(err, "failed to scan calibration log")
		}
		l.Status = model.CalibrationStatus(status)
		if completed.Valid {
			t := completed.Time
			l.CompletedAt = &t
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
