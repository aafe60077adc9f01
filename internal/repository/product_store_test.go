package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"NoteFlow/internal/domain/models"
)

const productYAML = `
products:
  - id: NOTE-1
    trade_date: 2025-01-15
    final_observation_date: 2026-01-15
    coupon_barrier: 80
    coupon_rate: 2
    coupon_memory: true
    step_down_per_period: -5
    cool_off_periods: 1
    protection_barrier: 70
    calendars: [US]
    underlyings:
      - symbol: AAA
        strike: 100
  - id: NOTE-2
    trade_date: 2025-03-01
    final_observation_date: 2027-03-01
    frequency: semiAnnually
    basket_mode: bestOf
    variant: himalaya
    protection_barrier: 60
    calendars: [US, EU]
    underlyings:
      - symbol: AAA
        strike: 100
      - symbol: BBB
        strike: 50
`

func writeProducts(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write products: %v", err)
	}
	return path
}

func TestYAMLProductStoreLoadsAndDefaults(t *testing.T) {
	store, err := NewYAMLProductStore(writeProducts(t, productYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	ids, err := store.ListProductIDs(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 || ids[0] != "NOTE-1" || ids[1] != "NOTE-2" {
		t.Fatalf("ids %v", ids)
	}

	cfg, err := store.GetProduct(context.Background(), "NOTE-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// unset fields take their defaults
	if cfg.Frequency != models.FreqQuarterly {
		t.Fatalf("frequency %s", cfg.Frequency)
	}
	if cfg.DelayDays != 2 {
		t.Fatalf("delay %d", cfg.DelayDays)
	}
	if cfg.InitialAutocallLevel != 100 {
		t.Fatalf("autocall level %v", cfg.InitialAutocallLevel)
	}
	if cfg.BasketMode != models.BasketWorstOf {
		t.Fatalf("basket mode %s", cfg.BasketMode)
	}
	if !cfg.CouponMemoryEnabled || cfg.CouponBarrier != 80 {
		t.Fatalf("terms not carried: %+v", cfg)
	}

	him, err := store.GetProduct(context.Background(), "NOTE-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if him.TemplateVariant != models.VariantHimalaya {
		t.Fatalf("variant %s", him.TemplateVariant)
	}
	if len(him.Underlyings) != 2 || him.Underlyings[1].Strike != 50 {
		t.Fatalf("underlyings %+v", him.Underlyings)
	}
}

func TestYAMLProductStoreRejectsBadCalendar(t *testing.T) {
	bad := `
products:
  - id: NOTE-X
    trade_date: 2025-01-15
    final_observation_date: 2026-01-15
    calendars: [MOON]
    underlyings:
      - symbol: AAA
        strike: 100
`
	if _, err := NewYAMLProductStore(writeProducts(t, bad)); err == nil {
		t.Fatal("expected validation error for unknown calendar")
	}
}

func TestYAMLProductStoreRejectsZeroStrike(t *testing.T) {
	bad := `
products:
  - id: NOTE-X
    trade_date: 2025-01-15
    final_observation_date: 2026-01-15
    calendars: [US]
    underlyings:
      - symbol: AAA
        strike: 0
`
	if _, err := NewYAMLProductStore(writeProducts(t, bad)); err == nil {
		t.Fatal("expected validation error for zero strike")
	}
}

func TestYAMLProductStoreRejectsDuplicateID(t *testing.T) {
	dup := `
products:
  - id: NOTE-1
    trade_date: 2025-01-15
    final_observation_date: 2026-01-15
    calendars: [US]
    underlyings:
      - symbol: AAA
        strike: 100
  - id: NOTE-1
    trade_date: 2025-01-15
    final_observation_date: 2026-01-15
    calendars: [US]
    underlyings:
      - symbol: BBB
        strike: 100
`
	if _, err := NewYAMLProductStore(writeProducts(t, dup)); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestYAMLProductStoreReloadSwapsAtomically(t *testing.T) {
	path := writeProducts(t, productYAML)
	store, err := NewYAMLProductStore(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	updated := `
products:
  - id: NOTE-3
    trade_date: 2025-06-01
    final_observation_date: 2026-06-01
    calendars: [GB]
    underlyings:
      - symbol: CCC
        strike: 200
`
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if err := store.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	ids, _ := store.ListProductIDs(context.Background())
	if len(ids) != 1 || ids[0] != "NOTE-3" {
		t.Fatalf("ids after reload %v", ids)
	}
	if _, err := store.GetProduct(context.Background(), "NOTE-1"); err == nil {
		t.Fatal("old product should be gone after reload")
	}
}
