package rules

import (
	"cmp"
	"slices"

	"github.com/tatianab/fallen-god/internal/models"
)

// Pair is an ordered (previous cast, this cast) combination.
type Pair struct {
	Prev models.AbilityID
	Next models.AbilityID
}

// Synergy is the bonus for casting Next immediately after Prev.
type Synergy struct {
	Label string
	Note  string
	apply func(*models.AbilityEffect)
}

var synergies = map[Pair]Synergy{
	{models.AbilityManifest, models.AbilitySmite}: {
		Label: "Manifest -> Smite",
		Note:  "Smite after Manifest Presence. No Consequence. Apparently you meant it.",
		apply: func(e *models.AbilityEffect) { e.ConsequenceDelta = min(0, e.ConsequenceDelta) },
	},
	{models.AbilityTwist, models.AbilityManifest}: {
		Label: "Twist -> Manifest",
		Note:  "The distortion helped. -2 Strain, +2 Pressure.",
		apply: func(e *models.AbilityEffect) {
			e.StrainRelief += 2
			e.PressureDelta += 2
		},
	},
	{models.AbilitySmite, models.AbilityTwist}: {
		Label: "Smite -> Twist",
		Note:  "A door opened. The next ability costs 0 Strain and 0 Consequence.",
		apply: func(e *models.AbilityEffect) { e.WillGrantFreeCast = true },
	},
	{models.AbilityWitness, models.AbilityCondemn}: {
		Label: "Witness -> Condemn",
		Note:  "Observation followed by judgment. +2 Pressure.",
		apply: func(e *models.AbilityEffect) { e.PressureDelta += 2 },
	},
	{models.AbilityCondemn, models.AbilityAbsolve}: {
		Label: "Condemn -> Absolve",
		Note:  "Condemn then forgive. -4 Consequence, +1 Essence.",
		apply: func(e *models.AbilityEffect) {
			e.ConsequenceDelta -= 4
			e.EssenceDelta++
		},
	},
	{models.AbilityManifest, models.AbilityStifle}: {
		Label: "Manifest -> Compliance",
		Note:  "The crowd's cooperation is restorative. -1 Strain.",
		apply: func(e *models.AbilityEffect) { e.StrainRelief++ },
	},
	{models.AbilityManifest, models.AbilitySupplicate}: {
		Label: "Manifest -> Compliance",
		Note:  "The crowd's cooperation is restorative. -1 Strain.",
		apply: func(e *models.AbilityEffect) { e.StrainRelief++ },
	},
	{models.AbilityTwist, models.AbilityRift}: {
		Label: "Twist -> Rift",
		Note:  "Fate distorted, then torn. +1 Pressure, +1 Consequence.",
		apply: func(e *models.AbilityEffect) {
			e.PressureDelta++
			e.ConsequenceDelta++
		},
	},
	{models.AbilityManifest, models.AbilityOrdain}: {
		Label: "Manifest -> Ordain",
		Note:  "Legitimacy is lucrative. +2 Essence.",
		apply: func(e *models.AbilityEffect) { e.EssenceDelta += 2 },
	},
	{models.AbilityWitness, models.AbilityInvoke}: {
		Label: "Witness -> Invoke",
		Note:  "They watched, now they act. +1 Pressure, -2 Consequence.",
		apply: func(e *models.AbilityEffect) {
			e.PressureDelta++
			e.ConsequenceDelta -= 2
		},
	},
	{models.AbilitySmite, models.AbilityUnravel}: {
		Label: "Smite -> Unravel",
		Note:  "Smite first, revise later. -3 Consequence.",
		apply: func(e *models.AbilityEffect) { e.ConsequenceDelta -= 3 },
	},
	{models.AbilityOrdain, models.AbilityCoerce}: {
		Label: "Ordain -> Coerce",
		Note:  "The mandate is backed with force. +3 Pressure.",
		apply: func(e *models.AbilityEffect) { e.PressureDelta += 3 },
	},
}

// LookupSynergy returns the synergy for casting next right after prev.
func LookupSynergy(prev, next models.AbilityID) (Synergy, bool) {
	s, ok := synergies[Pair{Prev: prev, Next: next}]
	return s, ok
}

// Synergies returns every defined pair, sorted.
func Synergies() []Pair {
	pairs := make([]Pair, 0, len(synergies))
	for p := range synergies {
		pairs = append(pairs, p)
	}
	slices.SortFunc(pairs, func(a, b Pair) int {
		return cmp.Or(cmp.Compare(a.Prev, b.Prev), cmp.Compare(a.Next, b.Next))
	})
	return pairs
}
