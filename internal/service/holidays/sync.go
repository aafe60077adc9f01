package holidays

import (
	"context"
	"fmt"
	"time"

	"NoteFlow/internal/domain/models"
	"NoteFlow/internal/services/engine"
	xhttp "NoteFlow/pkg/http"
	"NoteFlow/pkg/logger"
)

// Syncer periodically pulls exchange closure dates from an external
// holiday API and merges them into the calendar tables. The built-in
// rule-based holidays stay authoritative; the sync only adds ad-hoc
// closures the rules cannot know about.
type Syncer struct {
	client    *xhttp.Client
	baseURL   string
	calendars []models.CalendarID
	interval  time.Duration
	log       *logger.Logger
}

func New(baseURL string, calendars []string, interval, timeout time.Duration, log *logger.Logger) *Syncer {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ids := make([]models.CalendarID, len(calendars))
	for i, c := range calendars {
		ids[i] = models.CalendarID(c)
	}
	return &Syncer{
		client:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		baseURL:   baseURL,
		calendars: ids,
		interval:  interval,
		log:       log,
	}
}

// Run syncs once immediately and then on every interval tick until ctx
// is cancelled.
func (s *Syncer) Run(ctx context.Context) {
	if err := s.SyncAll(ctx); err != nil {
		s.log.Warn("holiday sync failed", logger.Error(err))
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SyncAll(ctx); err != nil {
				s.log.Warn("holiday sync failed", logger.Error(err))
			}
		}
	}
}

// SyncAll fetches the current and next year for every configured calendar.
func (s *Syncer) SyncAll(ctx context.Context) error {
	year := time.Now().Year()
	for _, cal := range s.calendars {
		for _, y := range []int{year, year + 1} {
			if err := s.syncYear(ctx, cal, y); err != nil {
				return fmt.Errorf("sync %s/%d: %w", cal, y, err)
			}
		}
	}
	return nil
}

type holidayEntry struct {
	Date string `json:"date"` // 2006-01-02
	Name string `json:"name"`
}

func (s *Syncer) syncYear(ctx context.Context, cal models.CalendarID, year int) error {
	var entries []holidayEntry
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/%d/%s", s.baseURL, year, cal),
	}, &entries)
	if err != nil {
		return err
	}

	dates := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		d, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			s.log.Warn("bad holiday date",
				logger.String("calendar", string(cal)),
				logger.String("date", e.Date))
			continue
		}
		dates = append(dates, d)
	}
	engine.AddHolidays(cal, dates)
	s.log.Info("holidays synced",
		logger.String("calendar", string(cal)),
		logger.Int("year", year),
		logger.Int("count", len(dates)))
	return nil
}
