package engine

import (
	"NoteFlow/internal/domain/models"
)

// Aggregate reduces underlying performances to a single basket level
// according to mode. Average uses explicit weights when any are supplied,
// equal weighting otherwise.
func Aggregate(perfs []models.UnderlyingPerformance, mode models.BasketMode) (float64, error) {
	if len(perfs) == 0 {
		return 0, configErrorf("underlyings", "empty basket")
	}
	switch mode {
	case models.BasketWorstOf:
		worst := perfs[0].Performance
		for _, p := range perfs[1:] {
			if p.Performance < worst {
				worst = p.Performance
			}
		}
		return worst, nil
	case models.BasketBestOf:
		best := perfs[0].Performance
		for _, p := range perfs[1:] {
			if p.Performance > best {
				best = p.Performance
			}
		}
		return best, nil
	case models.BasketAverage:
		return weightedAverage(perfs), nil
	default:
		return 0, configErrorf("basketMode", "unknown mode %q", mode)
	}
}

func weightedAverage(perfs []models.UnderlyingPerformance) float64 {
	var totalWeight float64
	for _, p := range perfs {
		totalWeight += p.Weight
	}
	if totalWeight <= 0 {
		sum := 0.0
		for _, p := range perfs {
			sum += p.Performance
		}
		return sum / float64(len(perfs))
	}
	sum := 0.0
	for _, p := range perfs {
		sum += p.Performance * p.Weight
	}
	return sum / totalWeight
}

// HimalayaSelect picks the best performer among underlyings not yet
// removed from the basket. The selected performance is the basket level
// for that period and the underlying leaves the basket afterwards.
func HimalayaSelect(perfs []models.UnderlyingPerformance, removed map[string]bool) (models.UnderlyingPerformance, error) {
	var best *models.UnderlyingPerformance
	for i := range perfs {
		if removed[perfs[i].Symbol] {
			continue
		}
		if best == nil || perfs[i].Performance > best.Performance {
			best = &perfs[i]
		}
	}
	if best == nil {
		return models.UnderlyingPerformance{}, configErrorf("underlyings", "himalaya basket exhausted")
	}
	return *best, nil
}

// HimalayaFinalLevel averages the locked-in performances after every
// period has occurred. It is a property of the completed outcome record,
// not of any single period.
func HimalayaFinalLevel(lockIns []models.HimalayaLockIn) float64 {
	if len(lockIns) == 0 {
		return 0
	}
	sum := 0.0
	for _, l := range lockIns {
		sum += l.Performance
	}
	return sum / float64(len(lockIns))
}
