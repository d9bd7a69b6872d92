package rules

import "github.com/tatianab/fallen-god/internal/models"

type aftermath struct {
	carry   int
	essence int
	text    string
}

var aftermaths = map[models.Category]aftermath{
	models.CategoryForce: {
		carry: 1,
		text:  "Force aftermath: the fear you inspired has spread into neighboring districts. You consider this bonus coverage.",
	},
	models.CategoryPresence: {
		carry:   1,
		essence: 1,
		text:    "Presence aftermath: your followers have become emphatic. This is their decision to manage.",
	},
	models.CategoryFate: {
		carry:   1,
		essence: 1,
		text:    "Fate aftermath: reality has formed strong opinions about what you did. The details remain under review.",
	},
}

// DominantCategory returns the category with the strictly largest positive
// tally. Ties go to the earliest category in models.Categories.
func DominantCategory(byCategory map[models.Category]int) (models.Category, bool) {
	var (
		dominant models.Category
		best     int
	)
	for _, c := range models.Categories {
		if v := byCategory[c]; v > best {
			dominant, best = c, v
		}
	}
	return dominant, best > 0
}

// ClassifyOutcome grades a finished encounter. FlavorText is left empty; the
// caller picks a line from the bank named by FlavorCategory.
func ClassifyOutcome(pressureRemaining, finalConsequence int, thresholdExceeded bool, startingPressure, threshold int, byCategory map[models.Category]int) models.EncounterResolution {
	pressureRemaining = max(0, pressureRemaining)
	finalConsequence = max(0, finalConsequence)

	halfThreshold := ceilDiv(threshold, 2)
	res := models.EncounterResolution{
		PressureRemaining: pressureRemaining,
		FinalConsequence:  finalConsequence,
		ThresholdExceeded: thresholdExceeded,
	}

	switch {
	case pressureRemaining == 0 && finalConsequence <= halfThreshold:
		res.Outcome = models.OutcomePerfect
		res.FlavorCategory = models.FlavorPerfectSuccess
		res.EssenceGained = 3
		res.CarryoverAdded = max(0, finalConsequence/2-1)

	case pressureRemaining == 0 ||
		(pressureRemaining <= ceilDiv(startingPressure*33, 100) && finalConsequence <= threshold):
		res.Outcome = models.OutcomePartial
		switch {
		case thresholdExceeded:
			res.FlavorCategory = models.FlavorThresholdExceeded
		case finalConsequence <= halfThreshold:
			res.FlavorCategory = models.FlavorLowConsequence
		default:
			res.FlavorCategory = models.FlavorHighConsequence
		}
		res.EssenceGained = 2
		res.CarryoverAdded = finalConsequence/2 + ceilDiv(pressureRemaining, 4)

	case pressureRemaining <= ceilDiv(startingPressure*67, 100):
		res.Outcome = models.OutcomeMinimal
		res.FlavorCategory = models.FlavorBarelySucceeded
		if thresholdExceeded {
			res.FlavorCategory = models.FlavorThresholdExceeded
		}
		res.EssenceGained = 1
		res.CarryoverAdded = finalConsequence/2 + ceilDiv(pressureRemaining, 4) + 1

	default:
		res.Outcome = models.OutcomeCatastrophic
		res.FlavorCategory = models.FlavorThresholdExceeded
		res.CarryoverAdded = finalConsequence/2 + ceilDiv(pressureRemaining, 2) + 2
	}

	if c, ok := DominantCategory(byCategory); ok {
		a := aftermaths[c]
		res.DominantConsequenceCategory = c
		res.CarryoverAdded += a.carry
		res.EssenceGained += a.essence
		res.ConsequenceAftermath = a.text
	}
	return res
}

// ceilDiv is ceil(a/b) for a >= 0, b > 0.
func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
