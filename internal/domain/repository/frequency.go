package repository

import "NoteFlow/internal/domain/models"

// IsValidFrequency returns true if f is a supported observation frequency.
func IsValidFrequency(f models.Frequency) bool {
	return f.Months() > 0
}

// DefaultFrequency returns the default observation frequency.
func DefaultFrequency() models.Frequency { return models.FreqQuarterly }

// NormalizeFrequency converts raw string to a valid frequency (or default).
func NormalizeFrequency(s string) models.Frequency {
	if s == "" {
		return DefaultFrequency()
	}
	f := models.Frequency(s)
	if IsValidFrequency(f) {
		return f
	}
	return DefaultFrequency()
}
