package engine

import (
	"NoteFlow/internal/domain/models"
)

// riskWarningBand is the distance-to-barrier width of the warning zone,
// in percentage points of initial level.
const riskWarningBand = 10.0

// ClassifyDistance buckets a distance-to-barrier into the three risk
// zones consumed by portfolio dashboards.
func ClassifyDistance(distance float64) models.RiskZone {
	switch {
	case distance < 0:
		return models.RiskBelowBarrier
	case distance <= riskWarningBand:
		return models.RiskWarning
	default:
		return models.RiskSafe
	}
}

// ClassifyUnderlyings computes per-underlying distance to the product's
// protection barrier from live performances. Underlyings without a live
// level are omitted rather than guessed.
func ClassifyUnderlyings(cfg *models.ProductScheduleConfig, live []models.UnderlyingPerformance) []models.UnderlyingRisk {
	out := make([]models.UnderlyingRisk, 0, len(live))
	for _, p := range live {
		distance := p.Performance - cfg.ProtectionBarrier
		out = append(out, models.UnderlyingRisk{
			ProductID:   cfg.ProductID,
			Symbol:      p.Symbol,
			Performance: p.Performance,
			Distance:    distance,
			Zone:        ClassifyDistance(distance),
		})
	}
	return out
}
