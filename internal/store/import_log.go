package store

import (
	"database/sql"

	"github.com/rotisserie/eris"

	"github.com/KirkODooley-ai/my-pricingproject-sub000/internal/model"
)

// CreateImportLog 创建导入日志
func (s *Store) CreateImportLog(log *model.ImportLog) error {
	_, err := s.db.Exec(`
		INSERT INTO import_logs (id, filename, file_size, mode, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, log.ID, log.Filename, log.FileSize, log.Mode, string(log.Status), log.StartedAt)
	if err != nil {
		return eris.Wrap(err, "failed to create import log")
	}
	return nil
}

// UpdateImportLog 完成导入日志更新
func (s *Store) UpdateImportLog(log *model.ImportLog) error {
	res, err := s.db.Exec(`
		UPDATE import_logs SET
			status = ?,
			imported_sheets = ?,
			skipped_sheets = ?,
			total_rows = ?,
			imported_rows = ?,
			error_rows = ?,
			error_message = ?,
			completed_at = ?
		WHERE id = ?
	`, string(log.Status), log.ImportedSheets, log.SkippedSheets, log.TotalRows,
		log.ImportedRows, log.ErrorRows, log.ErrorMessage, log.CompletedAt, log.ID)
	if err != nil {
		return eris.Wrap(err, "failed to update import log")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Wrapf(ErrNotFound, "import log %s", log.ID)
	}
	return nil
}

// ListImportLogs 最近的导入记录，新的在前；limit <= 0 时返回全部
func (s *Store) ListImportLogs(limit int) ([]*model.ImportLog, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT id, filename, file_size, mode, status, started_at, completed_at,
			imported_sheets, skipped_sheets, total_rows, imported_rows, error_rows, error_message
		FROM import_logs ORDER BY seq DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "failed to query import logs")
	}
	defer rows.Close()

	result := []*model.ImportLog{}
	for rows.Next() {
		l := &model.ImportLog{}
		var status string
		var completed sql.NullTime
		if err := rows.Scan(&l.ID, &l.Filename, &l.FileSize, &l.Mode, &status, &l.StartedAt, &completed,
			&l.ImportedSheets, &l.SkippedSheets, &l.TotalRows, &l.ImportedRows, &l.ErrorRows, &l.ErrorMessage); err != nil {
			return nil, eris.Wrap(err, "failed to scan import log")
		}
		l.Status = model.ImportStatus(status)
		if completed.Valid {
			t := completed.Time
			l.CompletedAt = &t
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
