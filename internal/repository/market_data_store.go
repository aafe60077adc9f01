package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"NoteFlow/internal/domain/models"
	"NoteFlow/internal/domain/repository"
)

// ClickHouseLevelStore implements MarketDataStore over a daily closing
// levels table.
type ClickHouseLevelStore struct {
	db    *sql.DB
	table string
}

func NewClickHouseLevelStore(db *sql.DB, table string) repository.MarketDataStore {
	return &ClickHouseLevelStore{db: db, table: table}
}

// CloseOn returns the most recent close for symbol at or before date,
// within lookback days. A miss yields a nil level and no error so the
// caller can distinguish "no data yet" from a storage failure.
func (s *ClickHouseLevelStore) CloseOn(ctx context.Context, symbol string, date time.Time, lookback int) (*models.ObservationLevel, error) {
	if lookback < 0 {
		lookback = 0
	}
	from := date.AddDate(0, 0, -lookback)
	stmt := fmt.Sprintf("SELECT symbol, day, close FROM %s WHERE symbol = ? AND day >= ? AND day <= ? ORDER BY day DESC LIMIT 1", s.table)

	row := s.db.QueryRowContext(ctx, stmt, symbol, from, date)
	var lv models.ObservationLevel
	if err := row.Scan(&lv.Symbol, &lv.Date, &lv.Close); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("close on %s: %w", symbol, err)
	}
	return &lv, nil
}

func (s *ClickHouseLevelStore) StoreLevel(ctx context.Context, lv *models.ObservationLevel) error {
	if lv == nil || lv.Symbol == "" {
		return fmt.Errorf("level is empty")
	}
	stmt := fmt.Sprintf("INSERT INTO %s (symbol, day, close) VALUES (?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, stmt, lv.Symbol, lv.Date, lv.Close)
	return err
}
