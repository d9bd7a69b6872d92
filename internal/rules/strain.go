// Package rules holds the pure game math: strain tiers, ability resolution
// and encounter outcome classification. Nothing here draws random numbers or
// mutates its inputs.
package rules

import "github.com/tatianab/fallen-god/internal/models"

// ClassifyStrain maps current strain against max strain onto a tier.
// Boundaries are at 45%, 80% and 100% of max; max <= 0 counts as full.
func ClassifyStrain(current, max int) models.StrainLevel {
	if max <= 0 {
		return models.StrainCritical
	}
	switch {
	case current*20 < max*9:
		return models.StrainLow
	case current*5 < max*4:
		return models.StrainMedium
	case current < max:
		return models.StrainHigh
	default:
		return models.StrainCritical
	}
}

type tierPenalty struct {
	consequence int
	essence     int
	pressure    int
	note        string
}

var strainPenalties = map[models.StrainLevel]tierPenalty{
	models.StrainMedium:   {consequence: 5, note: "the intervention is becoming imprecise"},
	models.StrainHigh:     {consequence: 8, essence: 1, note: "you are trying visibly hard"},
	models.StrainCritical: {consequence: 12, essence: 1, pressure: 2, note: "operating well outside guidelines"},
}
