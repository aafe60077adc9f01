package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"NoteFlow/internal/domain/models"
	"NoteFlow/internal/domain/repository"
)

// YAMLProductStore loads product definitions from a YAML file. Product
// authoring happens upstream; this service only reads the terms.
type YAMLProductStore struct {
	mu       sync.RWMutex
	products map[string]*models.ProductScheduleConfig
	order    []string
	path     string
}

type productFile struct {
	Products []productEntry `yaml:"products" validate:"required,dive"`
}

type productEntry struct {
	ID                   string            `yaml:"id" validate:"required"`
	TradeDate            string            `yaml:"trade_date" validate:"required"`
	FinalObservationDate string            `yaml:"final_observation_date" validate:"required"`
	Frequency            string            `yaml:"frequency" default:"quarterly" validate:"oneof=monthly quarterly semiAnnually annually"`
	DelayDays            int               `yaml:"delay_days" default:"2" validate:"gte=0"`
	CoolOffPeriods       int               `yaml:"cool_off_periods" validate:"gte=0"`
	InitialAutocallLevel float64           `yaml:"initial_autocall_level" default:"100"`
	StepDownPerPeriod    float64           `yaml:"step_down_per_period"`
	CouponBarrier        float64           `yaml:"coupon_barrier"`
	CouponBarriers       []float64         `yaml:"coupon_barriers"`
	CouponRate           float64           `yaml:"coupon_rate"`
	CouponRates          []float64         `yaml:"coupon_rates"`
	CouponMemory         bool              `yaml:"coupon_memory"`
	ProtectionBarrier    float64           `yaml:"protection_barrier"`
	BasketMode           string            `yaml:"basket_mode" default:"worstOf" validate:"oneof=worstOf bestOf average"`
	Calendars            []string          `yaml:"calendars" validate:"required,min=1,dive,oneof=US EU GB"`
	Variant              string            `yaml:"variant" default:"standard" validate:"oneof=standard himalaya"`
	HimalayaRemark       bool              `yaml:"himalaya_remark_at_maturity"`
	Underlyings          []underlyingEntry `yaml:"underlyings" validate:"required,min=1,dive"`
	Notional             float64           `yaml:"notional"`
	Currency             string            `yaml:"currency" default:"USD"`
	Issuer               string            `yaml:"issuer"`
}

type underlyingEntry struct {
	Symbol string  `yaml:"symbol" validate:"required"`
	Strike float64 `yaml:"strike" validate:"gt=0"`
	Weight float64 `yaml:"weight"`
}

// NewYAMLProductStore reads, validates, and indexes the product file.
func NewYAMLProductStore(path string) (*YAMLProductStore, error) {
	s := &YAMLProductStore{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the product file. The swap is atomic; lookups during a
// reload see either the old or the new set, never a mix.
func (s *YAMLProductStore) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read products: %w", err)
	}

	var file productFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse products: %w", err)
	}
	for i := range file.Products {
		if err := defaults.Set(&file.Products[i]); err != nil {
			return fmt.Errorf("product defaults: %w", err)
		}
	}
	v := validator.New()
	if err := v.Struct(&file); err != nil {
		return fmt.Errorf("validate products: %w", err)
	}

	products := make(map[string]*models.ProductScheduleConfig, len(file.Products))
	order := make([]string, 0, len(file.Products))
	for _, e := range file.Products {
		cfg, err := e.toConfig()
		if err != nil {
			return fmt.Errorf("product %s: %w", e.ID, err)
		}
		if _, dup := products[e.ID]; dup {
			return fmt.Errorf("product %s: duplicate id", e.ID)
		}
		products[e.ID] = cfg
		order = append(order, e.ID)
	}

	s.mu.Lock()
	s.products = products
	s.order = order
	s.mu.Unlock()
	return nil
}

func (e *productEntry) toConfig() (*models.ProductScheduleConfig, error) {
	trade, err := time.Parse("2006-01-02", e.TradeDate)
	if err != nil {
		return nil, fmt.Errorf("trade_date: %w", err)
	}
	final, err := time.Parse("2006-01-02", e.FinalObservationDate)
	if err != nil {
		return nil, fmt.Errorf("final_observation_date: %w", err)
	}

	calendars := make([]models.CalendarID, len(e.Calendars))
	for i, c := range e.Calendars {
		calendars[i] = models.CalendarID(c)
	}
	underlyings := make([]models.Underlying, len(e.Underlyings))
	for i, u := range e.Underlyings {
		underlyings[i] = models.Underlying{Symbol: u.Symbol, Strike: u.Strike, Weight: u.Weight}
	}

	return &models.ProductScheduleConfig{
		ProductID:                e.ID,
		TradeDate:                trade,
		FinalObservationDate:     final,
		Frequency:                models.Frequency(e.Frequency),
		DelayDays:                e.DelayDays,
		CoolOffPeriods:           e.CoolOffPeriods,
		InitialAutocallLevel:     e.InitialAutocallLevel,
		StepDownPerPeriod:        e.StepDownPerPeriod,
		CouponBarrier:            e.CouponBarrier,
		CouponBarriers:           e.CouponBarriers,
		CouponRate:               e.CouponRate,
		CouponRates:              e.CouponRates,
		CouponMemoryEnabled:      e.CouponMemory,
		ProtectionBarrier:        e.ProtectionBarrier,
		BasketMode:               models.BasketMode(e.BasketMode),
		MarketCalendars:          calendars,
		TemplateVariant:          models.TemplateVariant(e.Variant),
		HimalayaRemarkAtMaturity: e.HimalayaRemark,
		Underlyings:              underlyings,
		Notional:                 e.Notional,
		Currency:                 e.Currency,
		Issuer:                   e.Issuer,
	}, nil
}

func (s *YAMLProductStore) GetProduct(ctx context.Context, productID string) (*models.ProductScheduleConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.products[productID]
	if !ok {
		return nil, fmt.Errorf("product %s not found", productID)
	}
	return cfg, nil
}

func (s *YAMLProductStore) ListProductIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out, nil
}

var _ repository.ProductStore = (*YAMLProductStore)(nil)
