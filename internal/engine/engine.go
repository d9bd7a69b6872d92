// Package engine is the run orchestrator: it owns the authoritative
// RunState and moves it through menu, draft, encounter, boon, petition and
// upgrade phases. Commands never fail; input that does not fit the current
// phase is logged and ignored.
package engine

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/tatianab/fallen-god/internal/content"
	"github.com/tatianab/fallen-god/internal/encounter"
	"github.com/tatianab/fallen-god/internal/models"
	"github.com/tatianab/fallen-god/internal/random"
	"github.com/tatianab/fallen-god/internal/rules"
)

const (
	EncounterStrainRelief = 4
	CastsPerBoon          = 2
	BoonChoiceCount       = 2
	DraftChoiceCount      = 3
	PetitionInterval      = 2
	PetitionChoiceCount   = 3
	ActionLogLimit        = 12
)

// Engine is not safe for concurrent use.
type Engine struct {
	state   *models.RunState
	catalog *content.Catalog
	gen     *encounter.Generator
	log     *slog.Logger
	onRun   func(models.RunSummary)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithRunEndHook is called with the summary every time a run finishes or is
// abandoned.
func WithRunEndHook(fn func(models.RunSummary)) Option {
	return func(e *Engine) { e.onRun = fn }
}

// NewEngine returns an engine sitting in the menu with no progress.
func NewEngine(catalog *content.Catalog, rng random.Source, opts ...Option) *Engine {
	e := &Engine{
		state:   models.NewRunState(catalog.TemplateIDs()),
		catalog: catalog,
		gen:     encounter.New(catalog, rng),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Restore adopts a loaded snapshot.
func (e *Engine) Restore(state *models.RunState) {
	if state == nil {
		return
	}
	state.ApplyDefaults(e.catalog.TemplateIDs())
	e.state = state
}

// State returns a deep copy of the current snapshot.
func (e *Engine) State() *models.RunState {
	return e.state.Clone()
}

// Catalog returns the content tables the engine plays with.
func (e *Engine) Catalog() *content.Catalog {
	return e.catalog
}

// Preview computes what casting id would do without committing it. It
// returns nil whenever CastAbility would ignore the cast.
func (e *Engine) Preview(id models.AbilityID) *models.AbilityEffect {
	if e.state.Phase != models.PhaseEncounter || e.state.EncounterResolved {
		return nil
	}
	return rules.Resolve(e.state, id)
}

func (e *Engine) ignore(command, reason string, args ...any) {
	e.log.Debug("command ignored", append([]any{"command", command, "reason", reason, "phase", e.state.Phase}, args...)...)
}

// StartRun begins a run with the given doctrine.
func (e *Engine) StartRun(doctrineID models.DoctrineID) {
	s := e.state
	if s.Phase != models.PhaseMenu {
		e.ignore("start_run", "wrong phase")
		return
	}
	doctrine, ok := e.catalog.Doctrine(doctrineID)
	if !ok {
		e.ignore("start_run", "unknown doctrine", "doctrine", doctrineID)
		return
	}

	s.ResetRun(models.BaseMaxStrain + s.StrengthBonuses.MaxStrainBonus)
	s.LastRunSummary = nil
	s.Doctrine = &doctrine
	s.Abilities = e.catalog.StartingRoster(doctrine.StartingAbilityID)
	s.EncountersTarget = e.gen.RunLength(s.StrengthBonuses.RunLengthBonus)
	s.RunEncounterQueue = e.gen.BuildQueue(s.EncountersTarget, s.WorldWeights)
	s.RunForecast = e.gen.Forecast(s.RunEncounterQueue)
	s.DraftOptions = e.gen.BoonChoices(s.Abilities, DraftChoiceCount)
	s.LastResolution = fmt.Sprintf("%s embraced. Choose a third power.", doctrine.Name)

	e.log.Info("run started", "doctrine", doctrine.ID, "encounters", s.EncountersTarget)

	if len(s.DraftOptions) == 0 {
		e.beginEncounter(e.queuedTemplate())
		return
	}
	s.Phase = models.PhaseDraft
}

// SelectDraftAbility adds a drafted ability and opens the first encounter.
func (e *Engine) SelectDraftAbility(id models.AbilityID) {
	s := e.state
	if s.Phase != models.PhaseDraft {
		e.ignore("select_draft", "wrong phase")
		return
	}
	i := slices.IndexFunc(s.DraftOptions, func(a models.Ability) bool { return a.ID == id })
	if i < 0 {
		e.ignore("select_draft", "not offered", "ability", id)
		return
	}
	s.Abilities = append(s.Abilities, s.DraftOptions[i])
	s.DraftOptions = nil
	e.beginEncounter(e.queuedTemplate())
}

// CastAbility commits one ability against the current encounter.
func (e *Engine) CastAbility(id models.AbilityID) {
	s := e.state
	if s.Phase != models.PhaseEncounter || s.CurrentEncounter == nil || s.EncounterResolved {
		e.ignore("cast", "no live encounter", "ability", id)
		return
	}
	effect := rules.Resolve(s, id)
	if effect == nil {
		e.ignore("cast", "not in pool", "ability", id)
		return
	}
	ability, _ := s.FindAbility(id)
	enc := s.CurrentEncounter

	enc.PressureRemaining = max(0, enc.PressureRemaining-effect.PressureDelta)
	if enc.PressureRemaining > 0 && enc.PressureRegen > 0 {
		enc.PressureRemaining += enc.PressureRegen
	}
	enc.ConsequenceMeter = max(0, effect.ProjectedConsequenceMeter)
	if effect.ConsequenceDelta > 0 {
		enc.ConsequenceByCategory[ability.Category] += effect.ConsequenceDelta
	}
	if effect.WillExceedThreshold {
		enc.ThresholdExceeded = true
	}
	if effect.WillTriggerThresholdRupture {
		enc.ThresholdRuptureUsed = true
	}

	s.CurrentStrain = max(0, effect.ProjectedStrain)
	s.StrainLevel = rules.ClassifyStrain(s.CurrentStrain, s.MaxStrain)
	s.Essence += effect.EssenceDelta
	s.RunEssenceGained += effect.EssenceDelta
	s.AbilityUsage[id]++
	s.History = append(s.History, id)
	if effect.SynergyLabel != "" {
		s.SynergyStreak++
		s.LastSynergy = effect.SynergyLabel
	} else {
		s.SynergyStreak = 0
	}
	s.NextCastFree = effect.WillGrantFreeCast
	s.CastsThisEncounter++
	s.CastsThisRun++

	e.appendLog(enc.Turn, ability, effect)
	enc.Turn++

	e.log.Info("ability cast",
		"ability", id,
		"pressure", effect.PressureDelta,
		"essence", effect.EssenceDelta,
		"consequence", effect.ConsequenceDelta,
		"strain", s.CurrentStrain,
		"synergy", effect.SynergyLabel,
	)

	if enc.PressureRemaining <= 0 || enc.Turn > enc.TurnLimit {
		e.finishEncounter()
		return
	}
	if s.CastsThisRun%CastsPerBoon == 0 {
		if opts := e.gen.BoonChoices(s.Abilities, BoonChoiceCount); len(opts) > 0 {
			s.BoonOptions = opts
			s.Phase = models.PhaseBoon
		}
	}
}

func (e *Engine) appendLog(turn int, a models.Ability, effect *models.AbilityEffect) {
	parts := []string{
		fmt.Sprintf("-%d pressure", effect.PressureDelta),
		fmt.Sprintf("+%d essence", effect.EssenceDelta),
		fmt.Sprintf("%+d consequence", effect.ConsequenceDelta),
	}
	if effect.SynergyLabel != "" {
		parts = append(parts, "synergy "+effect.SynergyLabel)
	}
	if effect.WillTriggerThresholdRupture {
		parts = append(parts, "rupture")
	}
	s := e.state
	s.ActionLog = append(s.ActionLog, models.LogEntry{
		Turn:      turn,
		AbilityID: a.ID,
		Summary:   fmt.Sprintf("%s: %s", a.Name, strings.Join(parts, ", ")),
	})
	if n := len(s.ActionLog); n > ActionLogLimit {
		s.ActionLog = slices.Clone(s.ActionLog[n-ActionLogLimit:])
	}
}

func (e *Engine) finishEncounter() {
	s := e.state
	enc := s.CurrentEncounter

	res := rules.ClassifyOutcome(enc.PressureRemaining, enc.ConsequenceMeter, enc.ThresholdExceeded,
		enc.StartingPressure, enc.ConsequenceThreshold, enc.ConsequenceByCategory)
	res.FlavorText = e.gen.Flavor(res.FlavorCategory)
	if enc.PressureRemaining == 0 {
		res.EssenceGained += s.StrengthBonuses.PerfectClearEssenceBonus
	}

	s.Essence += res.EssenceGained
	s.RunEssenceGained += res.EssenceGained

	carry := s.CarryOverInstability/2 + res.CarryoverAdded
	switch s.StrainLevel {
	case models.StrainHigh:
		carry++
	case models.StrainCritical:
		carry += 2
	}
	s.CarryOverInstability = carry
	s.CurrentStrain = max(0, s.CurrentStrain-EncounterStrainRelief)
	s.StrainLevel = rules.ClassifyStrain(s.CurrentStrain, s.MaxStrain)
	s.RunOutcomes[res.Outcome]++
	s.LastEncounterResolution = &res
	s.EncounterResolved = true
	s.BoonOptions = nil
	s.LastResolution = res.FlavorText

	e.log.Info("encounter resolved",
		"encounter", enc.ID,
		"outcome", res.Outcome,
		"essence", res.EssenceGained,
		"carry_over", s.CarryOverInstability,
	)
}

// SelectBoonAbility takes an offered ability, or declines when id is nil.
func (e *Engine) SelectBoonAbility(id *models.AbilityID) {
	s := e.state
	if s.Phase != models.PhaseBoon {
		e.ignore("select_boon", "wrong phase")
		return
	}
	if id != nil {
		i := slices.IndexFunc(s.BoonOptions, func(a models.Ability) bool { return a.ID == *id })
		if i < 0 {
			e.ignore("select_boon", "not offered", "ability", *id)
			return
		}
		s.Abilities = append(s.Abilities, s.BoonOptions[i])
		if len(s.EncounterAbilityIDs) < encounter.PoolMax {
			s.EncounterAbilityIDs = append(s.EncounterAbilityIDs, *id)
		}
		s.LastResolution = fmt.Sprintf("%s joins your arsenal.", s.BoonOptions[i].Name)
	}
	s.BoonOptions = nil
	s.Phase = models.PhaseEncounter
}

// NextEncounter moves past a resolved encounter.
func (e *Engine) NextEncounter() {
	s := e.state
	if s.Phase != models.PhaseEncounter || !s.EncounterResolved {
		e.ignore("next_encounter", "encounter not resolved")
		return
	}
	prev := ""
	if s.CurrentEncounter != nil {
		prev = s.CurrentEncounter.TemplateID
	}
	s.EncountersCompleted++

	if s.EncountersCompleted >= s.EncountersTarget {
		s.UpgradeOptions = e.gen.UpgradeChoices(s.OwnedUpgrades)
		s.CurrentEncounter = nil
		s.EncounterAbilityIDs = nil
		s.Phase = models.PhaseUpgrade
		s.LastResolution = fmt.Sprintf("Run complete. %d essence gathered.", s.RunEssenceGained)
		e.endRun(false)
		return
	}

	if s.EncountersCompleted%PetitionInterval == 0 {
		s.PetitionOptions = e.gen.PetitionOptions(s.WorldWeights, []string{prev}, PetitionChoiceCount)
		if len(s.PetitionOptions) > 0 {
			s.Phase = models.PhasePetition
			s.LastResolution = "Petitioners crowd the altar. Choose which crisis to answer next."
			return
		}
	}
	e.beginEncounter(e.queuedTemplate())
}

// SelectPetition answers the chosen petition as the next encounter.
func (e *Engine) SelectPetition(templateID string) {
	s := e.state
	if s.Phase != models.PhasePetition {
		e.ignore("select_petition", "wrong phase")
		return
	}
	if !slices.ContainsFunc(s.PetitionOptions, func(t models.EncounterTemplate) bool { return t.ID == templateID }) {
		e.ignore("select_petition", "not offered", "template", templateID)
		return
	}
	if s.EncountersCompleted < len(s.RunEncounterQueue) {
		s.RunEncounterQueue[s.EncountersCompleted] = templateID
		s.RunForecast = e.gen.Forecast(s.RunEncounterQueue)
	}
	s.PetitionOptions = nil
	e.beginEncounter(templateID)
}

func (e *Engine) queuedTemplate() string {
	s := e.state
	if s.EncountersCompleted < len(s.RunEncounterQueue) {
		return s.RunEncounterQueue[s.EncountersCompleted]
	}
	return e.gen.PickTemplate(s.WorldWeights, nil)
}

func (e *Engine) beginEncounter(templateID string) {
	s := e.state
	b := s.StrengthBonuses

	s.CarryOverInstability = max(0, s.CarryOverInstability-b.CarryoverDecayBonus)
	if b.ResetStrainOnEncounterStart {
		s.CurrentStrain = 0
	}
	s.StrainLevel = rules.ClassifyStrain(s.CurrentStrain, s.MaxStrain)

	enc := e.gen.Create(templateID, encounter.Options{
		CarryOver:              s.CarryOverInstability,
		ThresholdBonus:         b.ConseqThresholdBonus,
		TurnLimitBonus:         b.TurnLimitBonus,
		PressureStartReduction: b.PressureStartReduction,
	})
	s.CurrentEncounter = &enc
	s.EncounterAbilityIDs = e.gen.AbilityPool(s.Abilities)
	s.CastsThisEncounter = 0
	s.NextCastFree = false
	s.EncounterResolved = false
	s.LastEncounterResolution = nil
	s.BoonOptions = nil
	s.Phase = models.PhaseEncounter
	s.LastResolution = enc.Description

	e.log.Info("encounter started",
		"encounter", enc.ID,
		"urgency", enc.Urgency,
		"pressure", enc.StartingPressure,
		"turns", enc.TurnLimit,
		"pool", len(s.EncounterAbilityIDs),
	)
}

// SelectUpgrade buys an offered upgrade and returns to the menu.
func (e *Engine) SelectUpgrade(id string) {
	s := e.state
	if s.Phase != models.PhaseUpgrade {
		e.ignore("select_upgrade", "wrong phase")
		return
	}
	i := slices.IndexFunc(s.UpgradeOptions, func(u models.Upgrade) bool { return u.ID == id })
	if i < 0 || s.OwnsUpgrade(id) {
		e.ignore("select_upgrade", "not offered", "upgrade", id)
		return
	}
	u := s.UpgradeOptions[i]
	if s.Essence < u.Cost {
		e.ignore("select_upgrade", "insufficient essence", "upgrade", id, "cost", u.Cost, "essence", s.Essence)
		return
	}

	s.Essence -= u.Cost
	s.StrengthBonuses = s.StrengthBonuses.Add(u.Bonuses)
	if w := u.EncounterWeightDelta; w != nil {
		s.WorldWeights[w.EncounterID] += w.Amount
	}
	s.OwnedUpgrades = append(s.OwnedUpgrades, u.ID)
	e.log.Info("upgrade bought", "upgrade", u.ID, "cost", u.Cost, "essence", s.Essence)
	e.returnToMenu(fmt.Sprintf("%s acquired.", u.Name))
}

// SkipUpgrade returns to the menu without buying anything.
func (e *Engine) SkipUpgrade() {
	if e.state.Phase != models.PhaseUpgrade {
		e.ignore("skip_upgrade", "wrong phase")
		return
	}
	e.returnToMenu("You decline to improve. Bold.")
}

// EndRun abandons the current run.
func (e *Engine) EndRun() {
	s := e.state
	if s.Phase == models.PhaseMenu {
		e.ignore("end_run", "no run in progress")
		return
	}
	if s.Phase != models.PhaseUpgrade {
		e.endRun(true)
	}
	e.returnToMenu("The run has been abandoned. The mortals will cope.")
}

// ResetProgress wipes everything, permanent progress included.
func (e *Engine) ResetProgress() {
	e.state = models.NewRunState(e.catalog.TemplateIDs())
	e.log.Info("progress reset")
}

func (e *Engine) endRun(abandoned bool) {
	s := e.state
	doctrine := models.DoctrineID("")
	if s.Doctrine != nil {
		doctrine = s.Doctrine.ID
	}
	summary := models.RunSummary{
		Doctrine:            doctrine,
		EncountersCompleted: s.EncountersCompleted,
		EncountersTarget:    s.EncountersTarget,
		EssenceGained:       s.RunEssenceGained,
		Outcomes:            maps.Clone(s.RunOutcomes),
		Abandoned:           abandoned,
	}
	s.LastRunSummary = &summary
	e.log.Info("run ended",
		"doctrine", summary.Doctrine,
		"completed", summary.EncountersCompleted,
		"essence", summary.EssenceGained,
		"abandoned", abandoned,
	)
	if e.onRun != nil {
		e.onRun(summary)
	}
}

func (e *Engine) returnToMenu(message string) {
	s := e.state
	s.ResetRun(models.BaseMaxStrain + s.StrengthBonuses.MaxStrainBonus)
	s.LastResolution = message
}
