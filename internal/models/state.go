package models

import "maps"

// Phase is the orchestrator's state-machine position.
type Phase string

const (
	PhaseMenu      Phase = "menu"
	PhaseDraft     Phase = "draft"
	PhaseEncounter Phase = "encounter"
	PhaseBoon      Phase = "boon"
	PhasePetition  Phase = "petition"
	PhaseUpgrade   Phase = "upgrade"
)

// BaseMaxStrain is max strain before upgrades.
const BaseMaxStrain = 20

// RunState is the authoritative snapshot owned by the orchestrator. Permanent
// progress (essence bank, owned upgrades, bonuses, world weights) survives
// across runs; everything else is reset when a run ends.
type RunState struct {
	Phase Phase `yaml:"phase"`

	// Permanent progress.
	Essence         int             `yaml:"essence"`
	OwnedUpgrades   []string        `yaml:"owned_upgrades"`
	StrengthBonuses StrengthBonuses `yaml:"strength_bonuses"`
	WorldWeights    map[string]int  `yaml:"world_weights"`

	// Run scope.
	RunEssenceGained     int                 `yaml:"run_essence_gained"`
	CurrentStrain        int                 `yaml:"current_strain"`
	MaxStrain            int                 `yaml:"max_strain"`
	StrainLevel          StrainLevel         `yaml:"strain_level"`
	Doctrine             *Doctrine           `yaml:"doctrine,omitempty"`
	Abilities            []Ability           `yaml:"abilities"`
	EncounterAbilityIDs  []AbilityID         `yaml:"encounter_ability_ids"`
	AbilityUsage         map[AbilityID]int   `yaml:"ability_usage"`
	History              []AbilityID         `yaml:"history"`
	ActionLog            []LogEntry          `yaml:"action_log"`
	EncountersCompleted  int                 `yaml:"encounters_completed"`
	EncountersTarget     int                 `yaml:"encounters_target"`
	RunEncounterQueue    []string            `yaml:"run_encounter_queue"`
	RunForecast          []EncounterForecast `yaml:"run_forecast"`
	CurrentEncounter     *ActiveEncounter    `yaml:"current_encounter,omitempty"`
	CarryOverInstability int                 `yaml:"carry_over_instability"`
	CastsThisEncounter   int                 `yaml:"casts_this_encounter"`
	CastsThisRun         int                 `yaml:"casts_this_run"`
	NextCastFree         bool                `yaml:"next_cast_free"`
	SynergyStreak        int                 `yaml:"synergy_streak"`
	LastSynergy          string              `yaml:"last_synergy"`
	RunOutcomes          map[Outcome]int     `yaml:"run_outcomes"`

	// Pending choices.
	DraftOptions    []Ability           `yaml:"draft_options"`
	BoonOptions     []Ability           `yaml:"boon_options"`
	PetitionOptions []EncounterTemplate `yaml:"petition_options"`
	UpgradeOptions  []Upgrade           `yaml:"upgrade_options"`

	LastEncounterResolution *EncounterResolution `yaml:"last_encounter_resolution,omitempty"`
	EncounterResolved       bool                 `yaml:"encounter_resolved"`
	LastResolution          string               `yaml:"last_resolution"`
	LastRunSummary          *RunSummary          `yaml:"last_run_summary,omitempty"`
}

// NewRunState returns the default snapshot: menu phase, empty bank, every
// template weighted 1.
func NewRunState(templateIDs []string) *RunState {
	weights := make(map[string]int, len(templateIDs))
	for _, id := range templateIDs {
		weights[id] = 1
	}
	s := &RunState{
		Phase:          PhaseMenu,
		WorldWeights:   weights,
		LastResolution: "The void awaits your next intervention.",
	}
	s.ResetRun(BaseMaxStrain)
	return s
}

// ResetRun clears every run-scoped field and returns to the menu while
// keeping permanent progress.
func (s *RunState) ResetRun(maxStrain int) {
	s.Phase = PhaseMenu
	s.RunEssenceGained = 0
	s.CurrentStrain = 0
	s.MaxStrain = maxStrain
	s.StrainLevel = StrainLow
	s.Doctrine = nil
	s.Abilities = nil
	s.EncounterAbilityIDs = nil
	s.AbilityUsage = make(map[AbilityID]int)
	s.History = nil
	s.ActionLog = nil
	s.EncountersCompleted = 0
	s.EncountersTarget = 0
	s.RunEncounterQueue = nil
	s.RunForecast = nil
	s.CurrentEncounter = nil
	s.CarryOverInstability = 0
	s.CastsThisEncounter = 0
	s.CastsThisRun = 0
	s.NextCastFree = false
	s.SynergyStreak = 0
	s.LastSynergy = ""
	s.RunOutcomes = make(map[Outcome]int)
	s.DraftOptions = nil
	s.BoonOptions = nil
	s.PetitionOptions = nil
	s.UpgradeOptions = nil
	s.LastEncounterResolution = nil
	s.EncounterResolved = false
}

// ApplyDefaults fills fields a loaded snapshot may be missing.
func (s *RunState) ApplyDefaults(templateIDs []string) {
	if s.Phase == "" {
		s.Phase = PhaseMenu
	}
	if s.WorldWeights == nil {
		s.WorldWeights = make(map[string]int, len(templateIDs))
	}
	for _, id := range templateIDs {
		if _, ok := s.WorldWeights[id]; !ok {
			s.WorldWeights[id] = 1
		}
	}
	if s.MaxStrain <= 0 {
		s.MaxStrain = BaseMaxStrain + s.StrengthBonuses.MaxStrainBonus
	}
	if s.StrainLevel == "" {
		s.StrainLevel = StrainLow
	}
	if s.AbilityUsage == nil {
		s.AbilityUsage = make(map[AbilityID]int)
	}
	if s.RunOutcomes == nil {
		s.RunOutcomes = make(map[Outcome]int)
	}
	if s.CurrentEncounter != nil && s.CurrentEncounter.ConsequenceByCategory == nil {
		s.CurrentEncounter.ConsequenceByCategory = EmptyConsequenceByCategory()
	}
}

// HasAbilityInPool reports whether id was drawn for the current encounter.
func (s *RunState) HasAbilityInPool(id AbilityID) bool {
	for _, candidate := range s.EncounterAbilityIDs {
		if candidate == id {
			return true
		}
	}
	return false
}

// FindAbility returns the owned ability with the given id.
func (s *RunState) FindAbility(id AbilityID) (Ability, bool) {
	for _, a := range s.Abilities {
		if a.ID == id {
			return a, true
		}
	}
	return Ability{}, false
}

// OwnsUpgrade reports whether the upgrade was bought in an earlier run.
func (s *RunState) OwnsUpgrade(id string) bool {
	for _, owned := range s.OwnedUpgrades {
		if owned == id {
			return true
		}
	}
	return false
}

// LastAbility returns the most recent cast of the run.
func (s *RunState) LastAbility() (AbilityID, bool) {
	if len(s.History) == 0 {
		return "", false
	}
	return s.History[len(s.History)-1], true
}

// EmptyConsequenceByCategory returns a zeroed tally for every category.
func EmptyConsequenceByCategory() map[Category]int {
	m := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		m[c] = 0
	}
	return m
}

// Clone returns a deep copy, so previews can never leak into the snapshot.
func (s *RunState) Clone() *RunState {
	if s == nil {
		return nil
	}
	c := *s
	c.OwnedUpgrades = append([]string(nil), s.OwnedUpgrades...)
	c.WorldWeights = maps.Clone(s.WorldWeights)
	if s.Doctrine != nil {
		d := *s.Doctrine
		c.Doctrine = &d
	}
	c.Abilities = append([]Ability(nil), s.Abilities...)
	c.EncounterAbilityIDs = append([]AbilityID(nil), s.EncounterAbilityIDs...)
	c.AbilityUsage = maps.Clone(s.AbilityUsage)
	c.History = append([]AbilityID(nil), s.History...)
	c.ActionLog = append([]LogEntry(nil), s.ActionLog...)
	c.RunEncounterQueue = append([]string(nil), s.RunEncounterQueue...)
	c.RunForecast = append([]EncounterForecast(nil), s.RunForecast...)
	if s.CurrentEncounter != nil {
		e := s.CurrentEncounter.Clone()
		c.CurrentEncounter = &e
	}
	c.RunOutcomes = maps.Clone(s.RunOutcomes)
	c.DraftOptions = append([]Ability(nil), s.DraftOptions...)
	c.BoonOptions = append([]Ability(nil), s.BoonOptions...)
	c.PetitionOptions = append([]EncounterTemplate(nil), s.PetitionOptions...)
	c.UpgradeOptions = append([]Upgrade(nil), s.UpgradeOptions...)
	for i, u := range c.UpgradeOptions {
		if u.EncounterWeightDelta != nil {
			d := *u.EncounterWeightDelta
			c.UpgradeOptions[i].EncounterWeightDelta = &d
		}
	}
	if s.LastEncounterResolution != nil {
		r := *s.LastEncounterResolution
		c.LastEncounterResolution = &r
	}
	if s.LastRunSummary != nil {
		rs := *s.LastRunSummary
		rs.Outcomes = maps.Clone(s.LastRunSummary.Outcomes)
		c.LastRunSummary = &rs
	}
	return &c
}

// Clone deep copies the encounter.
func (e ActiveEncounter) Clone() ActiveEncounter {
	c := e
	c.ConsequenceByCategory = maps.Clone(e.ConsequenceByCategory)
	c.ModifierEffects.AbilityEffects = append([]AbilityModifier(nil), e.ModifierEffects.AbilityEffects...)
	return c
}
