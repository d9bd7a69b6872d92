// Package encounter owns every random draw the game makes: encounter
// creation, template queues, ability pools, boon, petition and upgrade
// choices, and resolution flavor text.
package encounter

import (
	"fmt"
	"math"
	"slices"

	"github.com/tatianab/fallen-god/internal/content"
	"github.com/tatianab/fallen-god/internal/models"
	"github.com/tatianab/fallen-god/internal/random"
)

const (
	CarryOverPressureCap     = 15
	UrgentChance             = 0.45
	UrgentPressureMultiplier = 1.2
	MinStartingPressure      = 20
	AbsolutePressureFloor    = 5

	PoolMin = 5
	PoolMax = 6

	RunLengthMin = 3
	RunLengthMax = 5
)

// Options carries the run and upgrade inputs to Create.
type Options struct {
	CarryOver              int
	ThresholdBonus         int
	TurnLimitBonus         int
	PressureStartReduction int
}

// Generator draws from the catalog using an injected source.
type Generator struct {
	catalog *content.Catalog
	rng     random.Source
}

// New returns a generator over catalog.
func New(catalog *content.Catalog, rng random.Source) *Generator {
	return &Generator{catalog: catalog, rng: rng}
}

// Create builds a fresh encounter. Unknown template ids fall back to the
// first template.
func (g *Generator) Create(templateID string, opts Options) models.ActiveEncounter {
	tpl, ok := g.catalog.Template(templateID)
	if !ok {
		tpl = g.catalog.Templates[0]
	}
	mod := random.Pick(g.rng, g.catalog.Modifiers)

	carry := min(CarryOverPressureCap, max(0, opts.CarryOver))
	urgent := random.Chance(g.rng, UrgentChance)
	scalar := 1.0
	urgency := models.UrgencySteady
	if urgent {
		scalar = UrgentPressureMultiplier
		urgency = models.UrgencyUrgent
	}
	pressure := max(MinStartingPressure, int(math.Round(float64(tpl.BasePressure+carry)*scalar)))
	if opts.PressureStartReduction > 0 {
		pressure = max(AbsolutePressureFloor, pressure-opts.PressureStartReduction)
	}

	var turnLimit int
	if urgent {
		turnLimit = random.Between(g.rng, 2, 3)
	} else {
		turnLimit = random.Between(g.rng, 3, 4)
	}

	effects := mod.Effects
	effects.AbilityEffects = slices.Clone(mod.Effects.AbilityEffects)

	return models.ActiveEncounter{
		ID:                    fmt.Sprintf("%s-%s-%s", tpl.ID, mod.ID, random.Suffix(g.rng, 6)),
		TemplateID:            tpl.ID,
		ModifierID:            mod.ID,
		Urgency:               urgency,
		Title:                 tpl.Title,
		Description:           tpl.Description,
		PressureText:          tpl.PressureText,
		RewardText:            tpl.RewardText,
		ConsequenceText:       tpl.ConsequenceText,
		ModifierName:          mod.Name,
		ModifierDescription:   mod.Description,
		ModifierEffects:       effects,
		StartingPressure:      pressure,
		PressureRemaining:     pressure,
		RewardPerTurn:         max(1, tpl.BaseRewardPerTurn),
		ConsequenceMeter:      max(0, tpl.BaseConsequence),
		ConsequenceThreshold:  tpl.ConsequenceThreshold + opts.ThresholdBonus,
		ConsequenceByCategory: models.EmptyConsequenceByCategory(),
		Turn:                  1,
		TurnLimit:             turnLimit + opts.TurnLimitBonus,
		PressureRegen:         tpl.PressureRegen,
	}
}

// PickTemplate draws a template id weighted by weights (floor 1). Ids in
// avoid are skipped unless that would leave nothing to draw.
func (g *Generator) PickTemplate(weights map[string]int, avoid []string) string {
	candidates := make([]models.EncounterTemplate, 0, len(g.catalog.Templates))
	for _, t := range g.catalog.Templates {
		if len(g.catalog.Templates) == 1 || !slices.Contains(avoid, t.ID) {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		candidates = g.catalog.Templates
	}

	total := 0
	for _, t := range candidates {
		total += max(1, weights[t.ID])
	}
	roll := g.rng.IntN(total)
	for _, t := range candidates {
		roll -= max(1, weights[t.ID])
		if roll < 0 {
			return t.ID
		}
	}
	return candidates[len(candidates)-1].ID
}

// BuildQueue draws n template ids, never the same one twice in a row unless
// the catalog has only one template.
func (g *Generator) BuildQueue(n int, weights map[string]int) []string {
	queue := make([]string, 0, n)
	var avoid []string
	for range n {
		id := g.PickTemplate(weights, avoid)
		queue = append(queue, id)
		avoid = []string{id}
	}
	return queue
}

// Forecast counts how often each template appears in queue, most frequent
// first, ties in order of first appearance.
func (g *Generator) Forecast(queue []string) []models.EncounterForecast {
	var out []models.EncounterForecast
	index := map[string]int{}
	for _, id := range queue {
		if i, ok := index[id]; ok {
			out[i].Count++
			continue
		}
		title := id
		if t, ok := g.catalog.Template(id); ok {
			title = t.Title
		}
		index[id] = len(out)
		out = append(out, models.EncounterForecast{TemplateID: id, Title: title, Count: 1})
	}
	slices.SortStableFunc(out, func(a, b models.EncounterForecast) int {
		return b.Count - a.Count
	})
	return out
}

// RunLength draws the number of encounters in a run.
func (g *Generator) RunLength(bonus int) int {
	return random.Between(g.rng, RunLengthMin, RunLengthMax) + bonus
}

// AbilityPool draws the subset of roster available this encounter.
func (g *Generator) AbilityPool(roster []models.Ability) []models.AbilityID {
	if len(roster) == 0 {
		return nil
	}
	size := random.Between(g.rng, min(PoolMin, len(roster)), min(PoolMax, len(roster)))
	shuffled := random.Shuffle(g.rng, roster)
	ids := make([]models.AbilityID, size)
	for i := range size {
		ids[i] = shuffled[i].ID
	}
	return ids
}

// BoonChoices offers up to n catalog abilities not in owned.
func (g *Generator) BoonChoices(owned []models.Ability, n int) []models.Ability {
	var available []models.Ability
	for _, a := range g.catalog.Abilities {
		if !slices.ContainsFunc(owned, func(o models.Ability) bool { return o.ID == a.ID }) {
			available = append(available, a)
		}
	}
	if len(available) == 0 {
		return nil
	}
	return random.Shuffle(g.rng, available)[:min(n, len(available))]
}

// PetitionOptions offers up to n distinct templates, skipping avoid when
// enough others remain.
func (g *Generator) PetitionOptions(weights map[string]int, avoid []string, n int) []models.EncounterTemplate {
	n = min(n, len(g.catalog.Templates))
	exclude := slices.Clone(avoid)
	var out []models.EncounterTemplate
	for len(out) < n {
		id := g.PickTemplate(weights, exclude)
		if slices.ContainsFunc(out, func(t models.EncounterTemplate) bool { return t.ID == id }) {
			// avoid list exhausted; drop it and keep only what was chosen
			exclude = templateIDs(out)
			continue
		}
		t, _ := g.catalog.Template(id)
		out = append(out, t)
		exclude = append(exclude, id)
	}
	return out
}

func templateIDs(ts []models.EncounterTemplate) []string {
	ids := make([]string, len(ts))
	for i, t := range ts {
		ids[i] = t.ID
	}
	return ids
}

// UpgradeChoices offers one random unowned upgrade per tier.
func (g *Generator) UpgradeChoices(owned []string) []models.Upgrade {
	var out []models.Upgrade
	for tier := 1; tier <= 3; tier++ {
		var pool []models.Upgrade
		for _, u := range g.catalog.Upgrades {
			if u.Tier == tier && !slices.Contains(owned, u.ID) {
				pool = append(pool, u)
			}
		}
		if len(pool) > 0 {
			out = append(out, random.Pick(g.rng, pool))
		}
	}
	return out
}

// Flavor picks a line from the bank for fc.
func (g *Generator) Flavor(fc models.FlavorCategory) string {
	bank := g.catalog.FlavorBank(fc)
	if len(bank) == 0 {
		return ""
	}
	return random.Pick(g.rng, bank)
}
