package rules

import (
	"fmt"
	"strings"

	"github.com/tatianab/fallen-god/internal/models"
)

const (
	// EscalationInterval is how many prior uses add +1 pressure and +1 strain.
	EscalationInterval = 2

	ThresholdPenaltyStrain  = 2
	ThresholdPenaltyEssence = 1
	ThresholdRuptureEssence = 1
)

// resolution is the accumulator threaded through every stage.
type resolution struct {
	state     *models.RunState
	encounter *models.ActiveEncounter
	ability   models.Ability
	effect    models.AbilityEffect
}

func (r *resolution) note(format string, args ...any) {
	r.effect.Notes = append(r.effect.Notes, fmt.Sprintf(format, args...))
}

type stage func(*resolution)

// pipeline order is load-bearing: each stage may overwrite or clamp the
// values left by the previous one.
var pipeline = []stage{
	baseValues,
	escalation,
	modifierDeltas,
	freeCast,
	firstCastBonuses,
	doctrinePassive,
	orderedSynergy,
	categoryEscalation,
	thresholdCheck,
	strainTier,
	finalClamps,
}

// Resolve computes the full effect of casting id against state. It returns
// nil when there is no encounter, id is not in the encounter pool, or id is
// not in the roster. The same call backs both preview and commit.
func Resolve(state *models.RunState, id models.AbilityID) *models.AbilityEffect {
	if state == nil || state.CurrentEncounter == nil {
		return nil
	}
	if !state.HasAbilityInPool(id) {
		return nil
	}
	ability, ok := state.FindAbility(id)
	if !ok {
		return nil
	}

	r := &resolution{
		state:     state,
		encounter: state.CurrentEncounter,
		ability:   ability,
	}
	for _, run := range pipeline {
		run(r)
	}
	if r.effect.Notes == nil {
		r.effect.Notes = []string{}
	}
	return &r.effect
}

func baseValues(r *resolution) {
	a := r.ability
	r.effect = models.AbilityEffect{
		AbilityID:        a.ID,
		Category:         a.Category,
		BaseStrainCost:   a.BaseStrainCost,
		StrainCost:       a.BaseStrainCost,
		BasePressure:     a.BasePressure,
		PressureDelta:    a.BasePressure,
		BaseEssence:      a.BaseEssence,
		EssenceDelta:     a.BaseEssence + r.encounter.RewardPerTurn,
		BaseConsequence:  a.BaseConsequence,
		ConsequenceDelta: a.BaseConsequence,
	}
}

func escalation(r *resolution) {
	bonus := r.state.AbilityUsage[r.ability.ID] / EscalationInterval
	if bonus <= 0 {
		return
	}
	r.effect.PressureDelta += bonus
	r.effect.StrainCost += bonus
	r.note("%+d press %+d strain: Repetition, %s has grown accustomed to being deployed.", bonus, bonus, r.ability.Name)
}

func modifierDeltas(r *resolution) {
	mods := r.encounter.ModifierEffects
	r.effect.StrainCost += mods.StrainCostDelta
	r.effect.PressureDelta += mods.PressureDelta
	r.effect.EssenceDelta += mods.EssenceDelta
	r.effect.ConsequenceDelta += mods.ConsequenceDelta
	if parts := deltaParts(mods.StrainCostDelta, mods.PressureDelta, mods.ConsequenceDelta, mods.EssenceDelta); parts != "" {
		r.note("%s: %s.", parts, r.encounter.ModifierName)
	}

	if am, ok := mods.ForAbility(r.ability.ID); ok {
		r.effect.StrainCost += am.StrainCostDelta
		r.effect.PressureDelta += am.PressureDelta
		r.effect.EssenceDelta += am.EssenceDelta
		r.effect.ConsequenceDelta += am.ConsequenceDelta
		if parts := deltaParts(am.StrainCostDelta, am.PressureDelta, am.ConsequenceDelta, am.EssenceDelta); parts != "" {
			r.note("%s: %s affects %s.", parts, r.encounter.ModifierName, r.ability.Name)
		}
	}
	r.effect.StrainCost = max(0, r.effect.StrainCost)
}

func freeCast(r *resolution) {
	if !r.state.NextCastFree {
		return
	}
	r.effect.StrainCost = 0
	r.effect.ConsequenceDelta = min(0, r.effect.ConsequenceDelta)
	r.note("Free cast: the cosmos is being cooperative.")
}

func firstCastBonuses(r *resolution) {
	if r.state.CastsThisEncounter != 0 {
		return
	}
	b := r.state.StrengthBonuses
	if b.FirstCastStrainReduction > 0 && r.effect.StrainCost > 0 {
		r.effect.StrainCost = max(0, r.effect.StrainCost-b.FirstCastStrainReduction)
		r.note("-%d strain: Upgrade, first cast discounted.", b.FirstCastStrainReduction)
	}
	if b.FirstCastEssenceBonus > 0 {
		r.effect.EssenceDelta += b.FirstCastEssenceBonus
		r.note("+%d ess: Upgrade, first cast essence bonus.", b.FirstCastEssenceBonus)
	}
}

func doctrinePassive(r *resolution) {
	if r.state.Doctrine == nil {
		return
	}
	switch r.state.Doctrine.ID {
	case models.DoctrineDominion:
		if r.ability.BasePressure > 0 && r.effect.StrainCost > 0 {
			r.effect.StrainCost--
			r.note("-1 strain: Dominion passive, force is discounted.")
		}
	case models.DoctrineRevelation:
		if r.ability.BaseEssence > 0 {
			r.effect.PressureDelta++
			r.effect.EssenceDelta++
			r.note("+1 press +1 ess: Revelation passive, the crowd cannot stop paying attention.")
		}
	}
}

func orderedSynergy(r *resolution) {
	prev, ok := r.state.LastAbility()
	if !ok {
		return
	}
	syn, ok := LookupSynergy(prev, r.ability.ID)
	if !ok {
		return
	}
	syn.apply(&r.effect)
	r.effect.SynergyLabel = syn.Label
	r.note("Synergy: %s", syn.Note)

	if bonus := r.state.StrengthBonuses.SynergyEssenceBonus; bonus > 0 {
		r.effect.EssenceDelta += bonus
		r.note("+%d ess: Upgrade, synergy resonance.", bonus)
	}
	if r.state.NextCastFree {
		r.effect.ConsequenceDelta = min(0, r.effect.ConsequenceDelta)
	}
}

func categoryEscalation(r *resolution) {
	if r.effect.ConsequenceDelta <= 0 {
		return
	}
	switch r.ability.Category {
	case models.CategoryForce:
		r.effect.ConsequenceDelta++
		r.note("+1 conseq: Force, fear has spread further than planned.")
	case models.CategoryPresence:
		r.effect.ConsequenceDelta++
		r.effect.EssenceDelta++
		r.note("+1 conseq +1 ess: Presence, the devout have become demanding.")
	case models.CategoryFate:
		r.effect.ConsequenceDelta++
		if r.encounter.Turn%2 == 1 {
			r.effect.PressureDelta++
			r.note("+1 conseq +1 press: Fate, reality fractures.")
		} else {
			r.effect.EssenceDelta++
			r.note("+1 conseq +1 ess: Fate, reality fractures and power escapes.")
		}
	}
}

func thresholdCheck(r *resolution) {
	e := &r.effect
	e.ProjectedStrain = max(0, r.state.CurrentStrain+e.StrainCost-e.StrainRelief)

	projected := max(0, r.encounter.ConsequenceMeter+e.ConsequenceDelta)
	if r.encounter.ThresholdExceeded || projected <= r.encounter.ConsequenceThreshold {
		return
	}

	e.ProjectedStrain += ThresholdPenaltyStrain
	e.EssenceDelta -= ThresholdPenaltyEssence
	if !r.encounter.ThresholdRuptureUsed {
		e.WillTriggerThresholdRupture = true
		e.WillGrantFreeCast = true
		e.EssenceDelta += ThresholdRuptureEssence
		r.note("+%d ess, next cast free: Rupture, something gave way productively.", ThresholdRuptureEssence)
	}
	r.note("+%d strain -%d ess: Threshold exceeded.", ThresholdPenaltyStrain, ThresholdPenaltyEssence)
}

func strainTier(r *resolution) {
	e := &r.effect
	e.ProjectedStrainLevel = ClassifyStrain(e.ProjectedStrain, r.state.MaxStrain)
	p, ok := strainPenalties[e.ProjectedStrainLevel]
	if !ok {
		return
	}
	consequence := p.consequence
	if r.state.NextCastFree {
		// a free cast is never a penalized cast
		consequence = 0
	}
	e.ConsequenceDelta += consequence
	e.EssenceDelta -= p.essence
	e.PressureDelta -= p.pressure
	r.note("%s: Strain (%s), %s.", deltaParts(0, -p.pressure, consequence, -p.essence), e.ProjectedStrainLevel, p.note)
}

func finalClamps(r *resolution) {
	e := &r.effect
	e.PressureDelta = max(0, e.PressureDelta)
	e.EssenceDelta = max(0, e.EssenceDelta)
	e.ProjectedConsequenceMeter = max(0, r.encounter.ConsequenceMeter+e.ConsequenceDelta)
	e.WillExceedThreshold = e.ProjectedConsequenceMeter > r.encounter.ConsequenceThreshold
	if e.WillExceedThreshold && !r.encounter.ThresholdExceeded {
		r.note("Consequence threshold will be exceeded.")
	}
}

// deltaParts renders non-zero deltas as "+1 strain -2 press".
func deltaParts(strain, pressure, consequence, essence int) string {
	var parts []string
	add := func(v int, unit string) {
		if v != 0 {
			parts = append(parts, fmt.Sprintf("%+d %s", v, unit))
		}
	}
	add(strain, "strain")
	add(pressure, "press")
	add(consequence, "conseq")
	add(essence, "ess")
	return strings.Join(parts, " ")
}
