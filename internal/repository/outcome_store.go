package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"NoteFlow/internal/domain/models"
	"NoteFlow/internal/domain/repository"
)

// ClickHouseOutcomeStore persists schedules and resolved outcomes. Both
// tables are ReplacingMergeTree keyed by (product, period), which makes
// re-running an evaluation over the same data a no-op.
type ClickHouseOutcomeStore struct {
	db            *sql.DB
	scheduleTable string
	outcomeTable  string
}

func NewClickHouseOutcomeStore(db *sql.DB, scheduleTable, outcomeTable string) repository.OutcomeStore {
	return &ClickHouseOutcomeStore{db: db, scheduleTable: scheduleTable, outcomeTable: outcomeTable}
}

func (s *ClickHouseOutcomeStore) SaveSchedule(ctx context.Context, productID string, schedule models.Schedule) error {
	if len(schedule) == 0 {
		return nil
	}
	values := make([]string, 0, len(schedule))
	args := make([]interface{}, 0, len(schedule)*8)
	for _, p := range schedule {
		var level sql.NullFloat64
		if p.AutocallLevel != nil {
			level = sql.NullFloat64{Float64: *p.AutocallLevel, Valid: true}
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			productID,
			p.PeriodIndex,
			p.ObservationDate,
			p.ValueDate,
			boolToUInt8(p.IsCallable),
			level,
			p.CouponBarrier,
			boolToUInt8(p.IsFinal),
		)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (product_id, period_index, obs_date, value_date, is_callable, autocall_level, coupon_barrier, is_final) VALUES %s",
		s.scheduleTable, strings.Join(values, ","))
	_, err := s.db.ExecContext(ctx, stmt, args...)
	return err
}

func (s *ClickHouseOutcomeStore) GetSchedule(ctx context.Context, productID string) (models.Schedule, error) {
	stmt := fmt.Sprintf("SELECT period_index, obs_date, value_date, is_callable, autocall_level, coupon_barrier, is_final FROM %s FINAL WHERE product_id = ? ORDER BY period_index", s.scheduleTable)
	rows, err := s.db.QueryContext(ctx, stmt, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedule models.Schedule
	for rows.Next() {
		var p models.ObservationPeriod
		var callable, final uint8
		var level sql.NullFloat64
		if err := rows.Scan(&p.PeriodIndex, &p.ObservationDate, &p.ValueDate, &callable, &level, &p.CouponBarrier, &final); err != nil {
			return nil, err
		}
		p.IsCallable = callable != 0
		p.IsFinal = final != 0
		if level.Valid {
			v := level.Float64
			p.AutocallLevel = &v
		}
		schedule = append(schedule, p)
	}
	return schedule, rows.Err()
}

func (s *ClickHouseOutcomeStore) SaveOutcomes(ctx context.Context, productID string, outcomes []models.ObservationOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	values := make([]string, 0, len(outcomes))
	args := make([]interface{}, 0, len(outcomes)*8)
	for _, o := range outcomes {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			productID,
			o.PeriodIndex,
			o.BasketLevel,
			boolToUInt8(o.ProductCalled),
			o.CouponPaid,
			o.CouponAddedToMemory,
			boolToUInt8(o.IsTerminal),
			o.ObservedAt,
		)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (product_id, period_index, basket_level, product_called, coupon_paid, coupon_to_memory, is_terminal, observed_at) VALUES %s",
		s.outcomeTable, strings.Join(values, ","))
	_, err := s.db.ExecContext(ctx, stmt, args...)
	return err
}

func (s *ClickHouseOutcomeStore) GetOutcomes(ctx context.Context, productID string, limit int) ([]models.ObservationOutcome, error) {
	stmt := fmt.Sprintf("SELECT period_index, basket_level, product_called, coupon_paid, coupon_to_memory, is_terminal, observed_at FROM %s FINAL WHERE product_id = ? ORDER BY period_index", s.outcomeTable)
	if limit > 0 {
		stmt += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, stmt, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []models.ObservationOutcome
	for rows.Next() {
		var o models.ObservationOutcome
		var called, terminal uint8
		if err := rows.Scan(&o.PeriodIndex, &o.BasketLevel, &called, &o.CouponPaid, &o.CouponAddedToMemory, &terminal, &o.ObservedAt); err != nil {
			return nil, err
		}
		o.ProductID = productID
		o.ProductCalled = called != 0
		o.IsTerminal = terminal != 0
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
