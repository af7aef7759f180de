package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"mcmcstats/domain/core"
	"mcmcstats/domain/stats"
	"mcmcstats/internal/errors"
	"mcmcstats/ports"
)

const insertBatchSize = 500

// StatisticsRepositoryImpl implements ports.StatisticsRepository with sqlx.
// Queries are written with ? placeholders and rebound for the driver.
type StatisticsRepositoryImpl struct {
	db *sqlx.DB
}

// NewStatisticsRepository creates a new statistics repository
func NewStatisticsRepository(db *sqlx.DB) ports.StatisticsRepository {
	return &StatisticsRepositoryImpl{db: db}
}

type tableRow struct {
	RunID     string    `db:"run_id"`
	Name      string    `db:"name"`
	Columns   string    `db:"columns"`
	NumRows   int       `db:"num_rows"`
	CreatedAt time.Time `db:"created_at"`
}

type cellRow struct {
	RunID       string          `db:"run_id"`
	Name        string          `db:"name"`
	RowIndex    int             `db:"row_index"`
	ColumnIndex int             `db:"column_index"`
	ColumnName  string          `db:"column_name"`
	ValueText   string          `db:"value_text"`
	ValueNum    sql.NullFloat64 `db:"value_num"`
}

type columnJSON struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// SaveTable replaces any table stored under (runID, name)
func (r *StatisticsRepositoryImpl) SaveTable(ctx context.Context, runID core.RunID, name string, table *stats.Table) error {
	cols := table.Columns()
	meta := make([]columnJSON, len(cols))
	for i, c := range cols {
		meta[i] = columnJSON{Name: c.Name, Kind: c.Kind.String()}
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM statistics_cells WHERE run_id = ? AND name = ?`,
		`DELETE FROM statistics_tables WHERE run_id = ? AND name = ?`,
	} {
		if _, err := tx.ExecContext(ctx, tx.Rebind(q), runID.String(), name); err != nil {
			return errors.DatabaseError("failed to clear previous table", err)
		}
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO statistics_tables (run_id, name, columns, num_rows, created_at)
		VALUES (:run_id, :name, :columns, :num_rows, :created_at)
	`, tableRow{
		RunID:     runID.String(),
		Name:      name,
		Columns:   string(encoded),
		NumRows:   table.NumRows(),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return errors.DatabaseError("failed to insert table metadata", err)
	}

	batch := make([]cellRow, 0, insertBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO statistics_cells (run_id, name, row_index, column_index, column_name, value_text, value_num)
			VALUES (:run_id, :name, :row_index, :column_index, :column_name, :value_text, :value_num)
		`, batch)
		batch = batch[:0]
		if err != nil {
			return errors.DatabaseError("failed to insert cells", err)
		}
		return nil
	}
	for row := 0; row < table.NumRows(); row++ {
		for c, col := range cols {
			cell := table.Cell(row, c)
			rec := cellRow{
				RunID:       runID.String(),
				Name:        name,
				RowIndex:    row,
				ColumnIndex: c,
				ColumnName:  col.Name,
				ValueText:   cell.Format(col.Kind),
			}
			if col.Kind == stats.KindNumber && !math.IsNaN(cell.Num) && !math.IsInf(cell.Num, 0) {
				rec.ValueNum = sql.NullFloat64{Float64: cell.Num, Valid: true}
			}
			batch = append(batch, rec)
			if len(batch) == insertBatchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit table", err)
	}
	return nil
}

// LoadTable reads a stored table back
func (r *StatisticsRepositoryImpl) LoadTable(ctx context.Context, runID core.RunID, name string) (*stats.Table, error) {
	var meta tableRow
	err := r.db.GetContext(ctx, &meta, r.db.Rebind(`
		SELECT run_id, name, columns, num_rows
		FROM statistics_tables
		WHERE run_id = ? AND name = ?
	`), runID.String(), name)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("statistics table %q of run %s", name, runID)
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to load table metadata", err)
	}

	var decoded []columnJSON
	if err := json.Unmarshal([]byte(meta.Columns), &decoded); err != nil {
		return nil, fmt.Errorf("invalid column metadata: %w", err)
	}
	cols := make([]stats.Column, len(decoded))
	for i, c := range decoded {
		cols[i] = stats.Column{Name: c.Name, Kind: stats.KindNumber}
		if c.Kind == stats.KindString.String() {
			cols[i].Kind = stats.KindString
		}
	}

	var cells []cellRow
	err = r.db.SelectContext(ctx, &cells, r.db.Rebind(`
		SELECT run_id, name, row_index, column_index, column_name, value_text, value_num
		FROM statistics_cells
		WHERE run_id = ? AND name = ?
		ORDER BY row_index, column_index
	`), runID.String(), name)
	if err != nil {
		return nil, errors.DatabaseError("failed to load cells", err)
	}

	rows := make([][]stats.Cell, meta.NumRows)
	for i := range rows {
		rows[i] = make([]stats.Cell, len(cols))
	}
	for _, c := range cells {
		if c.RowIndex >= len(rows) || c.ColumnIndex >= len(cols) {
			return nil, fmt.Errorf("cell (%d, %d) outside table %q", c.RowIndex, c.ColumnIndex, name)
		}
		if cols[c.ColumnIndex].Kind == stats.KindString {
			rows[c.RowIndex][c.ColumnIndex] = stats.Str(c.ValueText)
			continue
		}
		v, err := parseNumber(c.ValueText)
		if err != nil {
			return nil, fmt.Errorf("cell (%d, %d): %w", c.RowIndex, c.ColumnIndex, err)
		}
		rows[c.RowIndex][c.ColumnIndex] = stats.Num(v)
	}
	return stats.NewTable(cols, rows)
}

func parseNumber(s string) (float64, error) {
	if s == "NA" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// ListTables returns the table names stored for a run
func (r *StatisticsRepositoryImpl) ListTables(ctx context.Context, runID core.RunID) ([]string, error) {
	var names []string
	err := r.db.SelectContext(ctx, &names, r.db.Rebind(`
		SELECT name FROM statistics_tables WHERE run_id = ? ORDER BY name
	`), runID.String())
	if err != nil {
		return nil, errors.DatabaseError("failed to list tables", err)
	}
	return names, nil
}
