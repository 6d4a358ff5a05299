package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	domain "github.com/iyervish/design-crit/internal/domain/analysis"
)

// ResultRepository is the MySQL twin of the postgres repository.
//
// Expected schema:
//
//	CREATE TABLE design_results (
//	  id            VARCHAR(32) PRIMARY KEY,
//	  result_json   MEDIUMTEXT NOT NULL,
//	  screenshot    MEDIUMBLOB NOT NULL,
//	  overall_score DOUBLE NOT NULL,
//	  source_type   VARCHAR(16) NOT NULL,
//	  source_value  TEXT NOT NULL,
//	  created_at    DATETIME(6) NOT NULL
//	);
type ResultRepository struct {
	db *sql.DB
}

func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) Put(ctx context.Context, res *domain.Result, image []byte) (domain.ResultID, error) {
	id := domain.NewID()

	data, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}

	const q = `
INSERT INTO design_results
  (id, result_json, screenshot, overall_score, source_type, source_value, created_at)
VALUES (?,?,?,?,?,?,?);
`
	_, err = r.db.ExecContext(ctx, q, id, string(data), image,
		res.OverallScore, res.SourceType, res.SourceValue, res.Timestamp)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *ResultRepository) Get(ctx context.Context, id domain.ResultID) (*domain.Result, []byte, error) {
	const q = `
SELECT result_json, screenshot
FROM design_results
WHERE id=?;`
	var (
		data  string
		image []byte
	)
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&data, &image); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, err
	}

	var res domain.Result
	if err := json.Unmarshal([]byte(data), &res); err != nil {
		return nil, nil, fmt.Errorf("decode stored result %s: %w", id, err)
	}
	return &res, image, nil
}

// Recent returns a page of result summaries ordered by created_at desc
func (r *ResultRepository) Recent(ctx context.Context, page, pageSize int) ([]domain.Summary, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, overall_score, source_type, source_value, created_at
FROM design_results
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Summary{}
	for rows.Next() {
		var s domain.Summary
		if err := rows.Scan(&s.ID, &s.OverallScore, &s.SourceType, &s.SourceValue, &s.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
