package models

// AbilityID identifies an ability in the content tables.
type AbilityID string

const (
	AbilitySmite      AbilityID = "smite"
	AbilityManifest   AbilityID = "manifest"
	AbilityTwist      AbilityID = "twist"
	AbilityCondemn    AbilityID = "condemn"
	AbilityWitness    AbilityID = "witness"
	AbilityAbsolve    AbilityID = "absolve"
	AbilityStifle     AbilityID = "stifle"
	AbilityEdict      AbilityID = "edict"
	AbilitySupplicate AbilityID = "supplicate"
	AbilityRift       AbilityID = "rift"
	AbilityOrdain     AbilityID = "ordain"
	AbilityInvoke     AbilityID = "invoke"
	AbilityUnravel    AbilityID = "unravel"
	AbilityCoerce     AbilityID = "coerce"
)

// AllAbilityIDs lists every known ability id in table order.
var AllAbilityIDs = []AbilityID{
	AbilitySmite, AbilityManifest, AbilityTwist, AbilityCondemn, AbilityWitness,
	AbilityAbsolve, AbilityStifle, AbilityEdict, AbilitySupplicate, AbilityRift,
	AbilityOrdain, AbilityInvoke, AbilityUnravel, AbilityCoerce,
}

// Valid reports whether id is one of the known abilities.
func (id AbilityID) Valid() bool {
	for _, known := range AllAbilityIDs {
		if id == known {
			return true
		}
	}
	return false
}

// Category groups abilities by the flavour of secondary penalty they cause.
type Category string

const (
	CategoryForce    Category = "smite"
	CategoryPresence Category = "manifest"
	CategoryFate     Category = "twist"
)

// Categories is the fixed iteration order used for tallies and tie-breaks.
var Categories = []Category{CategoryForce, CategoryPresence, CategoryFate}

var categoryLabels = map[Category]string{
	CategoryForce:    "Force",
	CategoryPresence: "Presence",
	CategoryFate:     "Fate",
}

// Label returns the player-facing name of the category.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// StrainLevel is the ordinal tier of current strain against max strain.
type StrainLevel string

const (
	StrainLow      StrainLevel = "Low"
	StrainMedium   StrainLevel = "Medium"
	StrainHigh     StrainLevel = "High"
	StrainCritical StrainLevel = "Critical"
)

// DoctrineID identifies a run-scoped passive build.
type DoctrineID string

const (
	DoctrineDominion   DoctrineID = "dominion"
	DoctrineRevelation DoctrineID = "revelation"
)

// Ability is static reference data for one castable intervention.
type Ability struct {
	ID              AbilityID `yaml:"id"`
	Name            string    `yaml:"name"`
	Description     string    `yaml:"description"`
	FlavorText      string    `yaml:"flavor_text,omitempty"`
	Category        Category  `yaml:"category"`
	BaseStrainCost  int       `yaml:"base_strain_cost"`
	BasePressure    int       `yaml:"base_pressure"`
	BaseEssence     int       `yaml:"base_essence"`
	BaseConsequence int       `yaml:"base_consequence"`
}

// EncounterTemplate is static reference data for one kind of crisis.
type EncounterTemplate struct {
	ID                   string `yaml:"id"`
	Title                string `yaml:"title"`
	Description          string `yaml:"description"`
	PressureText         string `yaml:"pressure_text"`
	RewardText           string `yaml:"reward_text"`
	ConsequenceText      string `yaml:"consequence_text"`
	BasePressure         int    `yaml:"base_pressure"`
	BaseRewardPerTurn    int    `yaml:"base_reward_per_turn"`
	BaseConsequence      int    `yaml:"base_consequence"`
	ConsequenceThreshold int    `yaml:"consequence_threshold"`
	PressureRegen        int    `yaml:"pressure_regen,omitempty"`
}

// AbilityModifier overrides the deltas of a single named ability.
type AbilityModifier struct {
	AbilityID        AbilityID `yaml:"ability_id"`
	StrainCostDelta  int       `yaml:"strain_cost_delta,omitempty"`
	PressureDelta    int       `yaml:"pressure_delta,omitempty"`
	ConsequenceDelta int       `yaml:"consequence_delta,omitempty"`
	EssenceDelta     int       `yaml:"essence_delta,omitempty"`
}

// ModifierEffects is the sparse set of deltas an encounter modifier applies.
type ModifierEffects struct {
	StrainCostDelta  int               `yaml:"strain_cost_delta,omitempty"`
	PressureDelta    int               `yaml:"pressure_delta,omitempty"`
	ConsequenceDelta int               `yaml:"consequence_delta,omitempty"`
	EssenceDelta     int               `yaml:"essence_delta,omitempty"`
	AbilityEffects   []AbilityModifier `yaml:"ability_effects,omitempty"`
}

// ForAbility returns the override for id, if the modifier names it.
func (e ModifierEffects) ForAbility(id AbilityID) (AbilityModifier, bool) {
	for _, am := range e.AbilityEffects {
		if am.AbilityID == id {
			return am, true
		}
	}
	return AbilityModifier{}, false
}

// EncounterModifier is a random twist applied to one encounter.
type EncounterModifier struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Effects     ModifierEffects `yaml:"effects"`
}

// Doctrine is a permanent passive chosen at run start.
type Doctrine struct {
	ID                 DoctrineID `yaml:"id"`
	Name               string     `yaml:"name"`
	Description        string     `yaml:"description"`
	StartingAbilityID  AbilityID  `yaml:"starting_ability_id"`
	PassiveDescription string     `yaml:"passive_description"`
}

// UpgradeCategory separates strength upgrades from world-shaping ones.
type UpgradeCategory string

const (
	UpgradeStrength UpgradeCategory = "strength"
	UpgradeWorld    UpgradeCategory = "world"
)

// EncounterWeightDelta biases which encounter templates are drawn.
type EncounterWeightDelta struct {
	EncounterID string `yaml:"encounter_id"`
	Amount      int    `yaml:"amount"`
}

// StrengthBonuses accumulates every permanent upgrade bonus.
type StrengthBonuses struct {
	FirstCastStrainReduction    int  `yaml:"first_cast_strain_reduction"`
	FirstCastEssenceBonus       int  `yaml:"first_cast_essence_bonus"`
	MaxStrainBonus              int  `yaml:"max_strain_bonus"`
	CarryoverDecayBonus         int  `yaml:"carryover_decay_bonus"`
	SynergyEssenceBonus         int  `yaml:"synergy_essence_bonus"`
	PerfectClearEssenceBonus    int  `yaml:"perfect_clear_essence_bonus"`
	ConseqThresholdBonus        int  `yaml:"conseq_threshold_bonus"`
	RunLengthBonus              int  `yaml:"run_length_bonus"`
	TurnLimitBonus              int  `yaml:"turn_limit_bonus"`
	PressureStartReduction      int  `yaml:"pressure_start_reduction"`
	ResetStrainOnEncounterStart bool `yaml:"reset_strain_on_encounter_start"`
}

// Add folds other into b.
func (b StrengthBonuses) Add(other StrengthBonuses) StrengthBonuses {
	return StrengthBonuses{
		FirstCastStrainReduction:    b.FirstCastStrainReduction + other.FirstCastStrainReduction,
		FirstCastEssenceBonus:       b.FirstCastEssenceBonus + other.FirstCastEssenceBonus,
		MaxStrainBonus:              b.MaxStrainBonus + other.MaxStrainBonus,
		CarryoverDecayBonus:         b.CarryoverDecayBonus + other.CarryoverDecayBonus,
		SynergyEssenceBonus:         b.SynergyEssenceBonus + other.SynergyEssenceBonus,
		PerfectClearEssenceBonus:    b.PerfectClearEssenceBonus + other.PerfectClearEssenceBonus,
		ConseqThresholdBonus:        b.ConseqThresholdBonus + other.ConseqThresholdBonus,
		RunLengthBonus:              b.RunLengthBonus + other.RunLengthBonus,
		TurnLimitBonus:              b.TurnLimitBonus + other.TurnLimitBonus,
		PressureStartReduction:      b.PressureStartReduction + other.PressureStartReduction,
		ResetStrainOnEncounterStart: b.ResetStrainOnEncounterStart || other.ResetStrainOnEncounterStart,
	}
}

// Upgrade is a cross-run bonus bought with banked essence.
type Upgrade struct {
	ID                   string                `yaml:"id"`
	Name                 string                `yaml:"name"`
	Description          string                `yaml:"description"`
	Category             UpgradeCategory       `yaml:"category"`
	Tier                 int                   `yaml:"tier"`
	Cost                 int                   `yaml:"cost"`
	Bonuses              StrengthBonuses       `yaml:"bonuses,omitempty"`
	EncounterWeightDelta *EncounterWeightDelta `yaml:"encounter_weight_delta,omitempty"`
}

// Urgency marks whether an encounter rolled the urgent variant.
type Urgency string

const (
	UrgencySteady Urgency = "steady"
	UrgencyUrgent Urgency = "urgent"
)

// ActiveEncounter is the live instance of one crisis.
type ActiveEncounter struct {
	ID                    string           `yaml:"id"`
	TemplateID            string           `yaml:"template_id"`
	ModifierID            string           `yaml:"modifier_id"`
	Urgency               Urgency          `yaml:"urgency"`
	Title                 string           `yaml:"title"`
	Description           string           `yaml:"description"`
	PressureText          string           `yaml:"pressure_text"`
	RewardText            string           `yaml:"reward_text"`
	ConsequenceText       string           `yaml:"consequence_text"`
	ModifierName          string           `yaml:"modifier_name"`
	ModifierDescription   string           `yaml:"modifier_description"`
	ModifierEffects       ModifierEffects  `yaml:"modifier_effects"`
	StartingPressure      int              `yaml:"starting_pressure"`
	PressureRemaining     int              `yaml:"pressure_remaining"`
	RewardPerTurn         int              `yaml:"reward_per_turn"`
	ConsequenceMeter      int              `yaml:"consequence_meter"`
	ConsequenceThreshold  int              `yaml:"consequence_threshold"`
	ConsequenceByCategory map[Category]int `yaml:"consequence_by_category"`
	ThresholdExceeded     bool             `yaml:"threshold_exceeded"`
	ThresholdRuptureUsed  bool             `yaml:"threshold_rupture_used"`
	Turn                  int              `yaml:"turn"`
	TurnLimit             int              `yaml:"turn_limit"`
	PressureRegen         int              `yaml:"pressure_regen"`
}

// AbilityEffect is the full computed effect of casting one ability. The same
// record backs the preview and the committed cast.
type AbilityEffect struct {
	AbilityID                   AbilityID   `yaml:"ability_id"`
	Category                    Category    `yaml:"category"`
	BaseStrainCost              int         `yaml:"base_strain_cost"`
	StrainCost                  int         `yaml:"strain_cost"`
	StrainRelief                int         `yaml:"strain_relief"`
	ProjectedStrain             int         `yaml:"projected_strain"`
	ProjectedStrainLevel        StrainLevel `yaml:"projected_strain_level"`
	BasePressure                int         `yaml:"base_pressure"`
	PressureDelta               int         `yaml:"pressure_delta"`
	BaseEssence                 int         `yaml:"base_essence"`
	EssenceDelta                int         `yaml:"essence_delta"`
	BaseConsequence             int         `yaml:"base_consequence"`
	ConsequenceDelta            int         `yaml:"consequence_delta"`
	ProjectedConsequenceMeter   int         `yaml:"projected_consequence_meter"`
	WillExceedThreshold         bool        `yaml:"will_exceed_threshold"`
	WillTriggerThresholdRupture bool        `yaml:"will_trigger_threshold_rupture"`
	WillGrantFreeCast           bool        `yaml:"will_grant_free_cast"`
	SynergyLabel                string      `yaml:"synergy_label,omitempty"`
	Notes                       []string    `yaml:"notes"`
}

// Outcome is the ordinal result tier of a finished encounter.
type Outcome string

const (
	OutcomePerfect      Outcome = "perfect"
	OutcomePartial      Outcome = "partial"
	OutcomeMinimal      Outcome = "minimal"
	OutcomeCatastrophic Outcome = "catastrophic"
)

// FlavorCategory selects a bank of resolution flavor text.
type FlavorCategory string

const (
	FlavorPerfectSuccess    FlavorCategory = "perfect_success"
	FlavorLowConsequence    FlavorCategory = "low_consequence"
	FlavorHighConsequence   FlavorCategory = "high_consequence"
	FlavorThresholdExceeded FlavorCategory = "threshold_exceeded"
	FlavorBarelySucceeded   FlavorCategory = "barely_succeeded"
)

// EncounterResolution summarizes how an encounter ended.
type EncounterResolution struct {
	Outcome                     Outcome        `yaml:"outcome"`
	FlavorCategory              FlavorCategory `yaml:"flavor_category"`
	PressureRemaining           int            `yaml:"pressure_remaining"`
	FinalConsequence            int            `yaml:"final_consequence"`
	ThresholdExceeded           bool           `yaml:"threshold_exceeded"`
	EssenceGained               int            `yaml:"essence_gained"`
	CarryoverAdded              int            `yaml:"carryover_added"`
	FlavorText                  string         `yaml:"flavor_text"`
	DominantConsequenceCategory Category       `yaml:"dominant_consequence_category,omitempty"`
	ConsequenceAftermath        string         `yaml:"consequence_aftermath,omitempty"`
}

// EncounterForecast counts how often a template appears in the run queue.
type EncounterForecast struct {
	TemplateID string `yaml:"template_id"`
	Title      string `yaml:"title"`
	Count      int    `yaml:"count"`
}

// LogEntry is one line of the bounded action log.
type LogEntry struct {
	Turn      int       `yaml:"turn"`
	AbilityID AbilityID `yaml:"ability_id"`
	Summary   string    `yaml:"summary"`
}

// RunSummary is produced whenever a run ends, for the history store.
type RunSummary struct {
	Doctrine            DoctrineID      `yaml:"doctrine"`
	EncountersCompleted int             `yaml:"encounters_completed"`
	EncountersTarget    int             `yaml:"encounters_target"`
	EssenceGained       int             `yaml:"essence_gained"`
	Outcomes            map[Outcome]int `yaml:"outcomes"`
	Abandoned           bool            `yaml:"abandoned"`
}
