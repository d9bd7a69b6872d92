package engine

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tatianab/fallen-god/internal/content"
	"github.com/tatianab/fallen-god/internal/models"
	"github.com/tatianab/fallen-god/internal/random"
)

func catalog(t *testing.T) *content.Catalog {
	t.Helper()
	c, err := content.Default()
	if err != nil {
		t.Fatalf("content.Default: %v", err)
	}
	return c
}

// liveEncounter returns an engine mid-encounter with the given abilities in
// both roster and pool, facing a quiet encounter that will not end on its own.
func liveEncounter(t *testing.T, ids ...models.AbilityID) *Engine {
	t.Helper()
	c := catalog(t)
	e := NewEngine(c, random.New(1))

	s := models.NewRunState(c.TemplateIDs())
	s.Phase = models.PhaseEncounter
	for _, id := range ids {
		a, ok := c.Ability(id)
		if !ok {
			t.Fatalf("unknown ability %s", id)
		}
		s.Abilities = append(s.Abilities, a)
		s.EncounterAbilityIDs = append(s.EncounterAbilityIDs, id)
	}
	s.EncountersTarget = 3
	s.RunEncounterQueue = []string{"storm", "shrine", "volcano"}
	s.CurrentEncounter = &models.ActiveEncounter{
		ID:                    "storm-test-000000",
		TemplateID:            "storm",
		ModifierName:          "Calm",
		StartingPressure:      100,
		PressureRemaining:     100,
		RewardPerTurn:         1,
		ConsequenceThreshold:  20,
		ConsequenceByCategory: models.EmptyConsequenceByCategory(),
		Turn:                  1,
		TurnLimit:             10,
	}
	e.Restore(s)
	return e
}

func TestNewEngineStartsInMenu(t *testing.T) {
	e := NewEngine(catalog(t), random.New(1))
	s := e.State()
	if s.Phase != models.PhaseMenu {
		t.Errorf("phase = %s", s.Phase)
	}
	if s.MaxStrain != models.BaseMaxStrain {
		t.Errorf("max strain = %d", s.MaxStrain)
	}
	if len(s.WorldWeights) != 7 {
		t.Errorf("world weights = %v", s.WorldWeights)
	}
}

func TestStartRun(t *testing.T) {
	c := catalog(t)
	e := NewEngine(c, random.New(7))
	e.StartRun(models.DoctrineRevelation)
	s := e.State()

	if s.Phase != models.PhaseDraft {
		t.Fatalf("phase = %s, want draft", s.Phase)
	}
	if s.Doctrine == nil || s.Doctrine.ID != models.DoctrineRevelation {
		t.Fatalf("doctrine = %+v", s.Doctrine)
	}
	if len(s.Abilities) != 3 || s.Abilities[0].ID != models.AbilityManifest {
		t.Errorf("roster = %v, want manifest first", s.Abilities)
	}
	if s.EncountersTarget < 3 || s.EncountersTarget > 5 {
		t.Errorf("target = %d", s.EncountersTarget)
	}
	if len(s.RunEncounterQueue) != s.EncountersTarget {
		t.Errorf("queue = %v", s.RunEncounterQueue)
	}
	total := 0
	for _, f := range s.RunForecast {
		total += f.Count
	}
	if total != s.EncountersTarget {
		t.Errorf("forecast counts %d encounters, want %d", total, s.EncountersTarget)
	}
	if len(s.DraftOptions) != DraftChoiceCount {
		t.Fatalf("draft options = %d", len(s.DraftOptions))
	}
	for _, a := range s.DraftOptions {
		if c.IsCore(a.ID) {
			t.Errorf("draft offered core ability %s", a.ID)
		}
	}
}

func TestStartRunAppliesPermanentBonuses(t *testing.T) {
	e := NewEngine(catalog(t), random.New(7))
	s := e.State()
	s.StrengthBonuses = models.StrengthBonuses{MaxStrainBonus: 6, RunLengthBonus: 1}
	e.Restore(s)

	e.StartRun(models.DoctrineDominion)
	got := e.State()
	if got.MaxStrain != 26 {
		t.Errorf("max strain = %d, want 26", got.MaxStrain)
	}
	if got.EncountersTarget < 4 || got.EncountersTarget > 6 {
		t.Errorf("target = %d, want 4-6", got.EncountersTarget)
	}
}

func TestCommandsIgnoredOutsideTheirPhase(t *testing.T) {
	e := NewEngine(catalog(t), random.New(1))
	before := e.State()

	e.CastAbility(models.AbilitySmite)
	e.SelectDraftAbility(models.AbilityEdict)
	boon := models.AbilityEdict
	e.SelectBoonAbility(&boon)
	e.SelectPetition("storm")
	e.NextEncounter()
	e.SelectUpgrade("tempered-vessel")
	e.SkipUpgrade()
	e.EndRun()
	e.StartRun("chaos")

	if diff := cmp.Diff(before, e.State()); diff != "" {
		t.Errorf("state changed (-before +after):\n%s", diff)
	}
}

func TestDraftOpensFirstEncounter(t *testing.T) {
	e := NewEngine(catalog(t), random.New(3))
	e.StartRun(models.DoctrineDominion)
	s := e.State()

	e.SelectDraftAbility(models.AbilitySmite) // core, never offered
	if e.State().Phase != models.PhaseDraft {
		t.Fatal("drafting an unoffered ability should be ignored")
	}

	pick := s.DraftOptions[0].ID
	e.SelectDraftAbility(pick)
	s = e.State()
	if s.Phase != models.PhaseEncounter {
		t.Fatalf("phase = %s", s.Phase)
	}
	if len(s.Abilities) != 4 || s.Abilities[3].ID != pick {
		t.Errorf("roster = %v", s.Abilities)
	}
	if s.CurrentEncounter == nil || s.CurrentEncounter.TemplateID != s.RunEncounterQueue[0] {
		t.Fatalf("encounter = %+v, want template %s", s.CurrentEncounter, s.RunEncounterQueue[0])
	}
	if len(s.EncounterAbilityIDs) != 4 {
		t.Errorf("pool = %v, want the whole 4-ability roster", s.EncounterAbilityIDs)
	}
	if s.DraftOptions != nil {
		t.Errorf("draft options not cleared: %v", s.DraftOptions)
	}
}

func TestPreviewMatchesCommit(t *testing.T) {
	e := liveEncounter(t, models.AbilitySmite, models.AbilityManifest, models.AbilityTwist)
	s := e.State()
	s.History = []models.AbilityID{models.AbilityTwist}
	s.AbilityUsage[models.AbilityManifest] = 2
	s.CurrentStrain = 5
	s.CurrentEncounter.PressureRegen = 2
	e.Restore(s)

	preview := e.Preview(models.AbilityManifest)
	if preview == nil {
		t.Fatal("nil preview")
	}
	before := e.State()
	e.CastAbility(models.AbilityManifest)
	after := e.State()

	enc := after.CurrentEncounter
	if want := before.CurrentEncounter.PressureRemaining - preview.PressureDelta + 2; enc.PressureRemaining != want {
		t.Errorf("pressure = %d, want %d", enc.PressureRemaining, want)
	}
	if enc.ConsequenceMeter != preview.ProjectedConsequenceMeter {
		t.Errorf("meter = %d, want %d", enc.ConsequenceMeter, preview.ProjectedConsequenceMeter)
	}
	if after.CurrentStrain != preview.ProjectedStrain {
		t.Errorf("strain = %d, want %d", after.CurrentStrain, preview.ProjectedStrain)
	}
	if after.Essence != before.Essence+preview.EssenceDelta {
		t.Errorf("essence = %d, want %d", after.Essence, before.Essence+preview.EssenceDelta)
	}
	if after.LastSynergy != preview.SynergyLabel || after.SynergyStreak != 1 {
		t.Errorf("synergy = %q streak %d", after.LastSynergy, after.SynergyStreak)
	}
	if after.AbilityUsage[models.AbilityManifest] != 3 {
		t.Errorf("usage = %d", after.AbilityUsage[models.AbilityManifest])
	}
	if enc.Turn != 2 || after.CastsThisEncounter != 1 || after.CastsThisRun != 1 {
		t.Errorf("turn %d casts %d/%d", enc.Turn, after.CastsThisEncounter, after.CastsThisRun)
	}
	if len(after.ActionLog) != 1 || after.ActionLog[0].AbilityID != models.AbilityManifest {
		t.Errorf("log = %+v", after.ActionLog)
	}
}

func TestCastIgnoresAbilityOutsidePool(t *testing.T) {
	e := liveEncounter(t, models.AbilitySmite)
	before := e.State()
	e.CastAbility(models.AbilityEdict)
	if diff := cmp.Diff(before, e.State()); diff != "" {
		t.Errorf("state changed:\n%s", diff)
	}
	if e.Preview(models.AbilityEdict) != nil {
		t.Error("preview of an unpooled ability should be nil")
	}
}

func TestRuptureFiresOnce(t *testing.T) {
	e := liveEncounter(t, models.AbilitySmite, models.AbilityCondemn)
	s := e.State()
	s.CurrentEncounter.ConsequenceMeter = 18
	e.Restore(s)

	first := e.Preview(models.AbilitySmite)
	if !first.WillTriggerThresholdRupture {
		t.Fatalf("expected the first crossing to rupture: %+v", first)
	}
	e.CastAbility(models.AbilitySmite)
	s = e.State()
	if !s.CurrentEncounter.ThresholdRuptureUsed || !s.CurrentEncounter.ThresholdExceeded || !s.NextCastFree {
		t.Fatalf("rupture not recorded: %+v free=%v", s.CurrentEncounter, s.NextCastFree)
	}

	for i := 0; i < 3; i++ {
		if e.State().Phase == models.PhaseBoon {
			e.SelectBoonAbility(nil)
		}
		p := e.Preview(models.AbilityCondemn)
		if p.WillTriggerThresholdRupture {
			t.Fatalf("cast %d: rupture fired again", i+2)
		}
		e.CastAbility(models.AbilityCondemn)
		if s := e.State(); !s.CurrentEncounter.ThresholdRuptureUsed {
			t.Fatalf("cast %d: rupture flag reset", i+2)
		}
	}
	if e.State().NextCastFree {
		t.Error("free cast should only follow the rupturing cast")
	}
}

func TestBoonOffer(t *testing.T) {
	e := liveEncounter(t, models.AbilitySmite, models.AbilityManifest, models.AbilityTwist)

	e.CastAbility(models.AbilityWitness) // not pooled
	e.CastAbility(models.AbilitySmite)
	if e.State().Phase != models.PhaseEncounter {
		t.Fatal("boon offered too early")
	}
	e.CastAbility(models.AbilityManifest)
	s := e.State()
	if s.Phase != models.PhaseBoon {
		t.Fatalf("phase = %s, want boon", s.Phase)
	}
	if len(s.BoonOptions) != BoonChoiceCount {
		t.Fatalf("boon options = %v", s.BoonOptions)
	}

	e.CastAbility(models.AbilitySmite)
	if e.State().CastsThisRun != 2 {
		t.Error("cast accepted during boon phase")
	}

	bogus := models.AbilitySmite
	e.SelectBoonAbility(&bogus)
	if e.State().Phase != models.PhaseBoon {
		t.Fatal("unoffered boon accepted")
	}

	pick := s.BoonOptions[1].ID
	e.SelectBoonAbility(&pick)
	s = e.State()
	if s.Phase != models.PhaseEncounter {
		t.Fatalf("phase = %s", s.Phase)
	}
	if _, ok := s.FindAbility(pick); !ok {
		t.Error("boon not added to roster")
	}
	if !s.HasAbilityInPool(pick) {
		t.Error("boon not added to a pool with room")
	}
}

func TestBoonDoesNotOverfillPool(t *testing.T) {
	ids := []models.AbilityID{models.AbilitySmite, models.AbilityManifest, models.AbilityTwist,
		models.AbilityCondemn, models.AbilityWitness, models.AbilityAbsolve}
	e := liveEncounter(t, ids...)
	e.CastAbility(models.AbilityWitness)
	e.CastAbility(models.AbilityAbsolve)
	s := e.State()
	if s.Phase != models.PhaseBoon {
		t.Fatalf("phase = %s", s.Phase)
	}
	pick := s.BoonOptions[0].ID
	e.SelectBoonAbility(&pick)
	s = e.State()
	if len(s.EncounterAbilityIDs) != 6 || s.HasAbilityInPool(pick) {
		t.Errorf("pool = %v", s.EncounterAbilityIDs)
	}
	if _, ok := s.FindAbility(pick); !ok {
		t.Error("boon missing from roster")
	}
}

func TestEncounterResolution(t *testing.T) {
	e := liveEncounter(t, models.AbilitySmite)
	s := e.State()
	s.CurrentStrain = 16
	s.CarryOverInstability = 6
	s.CastsThisEncounter = 1
	s.CurrentEncounter.PressureRemaining = 1
	e.Restore(s)

	e.CastAbility(models.AbilitySmite)
	s = e.State()

	if !s.EncounterResolved {
		t.Fatal("encounter should have ended")
	}
	res := s.LastEncounterResolution
	if res == nil || res.Outcome != models.OutcomePartial {
		t.Fatalf("resolution = %+v", res)
	}
	if res.DominantConsequenceCategory != models.CategoryForce {
		t.Errorf("dominant = %q", res.DominantConsequenceCategory)
	}
	if res.FlavorText == "" {
		t.Error("flavor text missing")
	}
	// 6/2 + (12/2 + 1 force aftermath) + 1 for ending at High strain
	if s.CarryOverInstability != 11 {
		t.Errorf("carry-over = %d, want 11", s.CarryOverInstability)
	}
	if s.CurrentStrain != 19-EncounterStrainRelief {
		t.Errorf("strain = %d, want %d", s.CurrentStrain, 19-EncounterStrainRelief)
	}
	if s.Essence != 1+2 {
		t.Errorf("essence = %d, want 3", s.Essence)
	}
	if s.RunOutcomes[models.OutcomePartial] != 1 {
		t.Errorf("outcomes = %v", s.RunOutcomes)
	}

	before := e.State()
	e.CastAbility(models.AbilitySmite)
	if diff := cmp.Diff(before, e.State()); diff != "" {
		t.Errorf("cast accepted on a resolved encounter:\n%s", diff)
	}
}

func TestPerfectClearBonus(t *testing.T) {
	e := liveEncounter(t, models.AbilityAbsolve)
	s := e.State()
	s.StrengthBonuses.PerfectClearEssenceBonus = 3
	s.CastsThisEncounter = 1
	s.CurrentEncounter.PressureRemaining = 2
	e.Restore(s)

	e.CastAbility(models.AbilityAbsolve)
	s = e.State()
	res := s.LastEncounterResolution
	if res == nil || res.Outcome != models.OutcomePerfect {
		t.Fatalf("resolution = %+v", res)
	}
	if res.EssenceGained != 3+3 {
		t.Errorf("essence gained = %d, want 6", res.EssenceGained)
	}
}

func TestTurnLimitEndsEncounter(t *testing.T) {
	e := liveEncounter(t, models.AbilityWitness)
	s := e.State()
	s.CurrentEncounter.TurnLimit = 1
	e.Restore(s)

	e.CastAbility(models.AbilityWitness)
	s = e.State()
	if !s.EncounterResolved {
		t.Fatal("turn limit should end the encounter")
	}
	if s.LastEncounterResolution.Outcome != models.OutcomeCatastrophic {
		t.Errorf("outcome = %s", s.LastEncounterResolution.Outcome)
	}
}

func TestPreviewOnlyInLiveEncounter(t *testing.T) {
	e := liveEncounter(t, models.AbilityWitness)
	if e.Preview(models.AbilityWitness) == nil {
		t.Fatal("no preview in a live encounter")
	}
	s := e.State()
	s.CurrentEncounter.TurnLimit = 1
	e.Restore(s)

	e.CastAbility(models.AbilityWitness)
	if !e.State().EncounterResolved {
		t.Fatal("turn limit should end the encounter")
	}
	if got := e.Preview(models.AbilityWitness); got != nil {
		t.Errorf("preview after resolution = %+v, want nil", got)
	}

	s = e.State()
	s.Phase = models.PhaseMenu
	s.EncounterResolved = false
	e.Restore(s)
	if got := e.Preview(models.AbilityWitness); got != nil {
		t.Errorf("preview in %s = %+v, want nil", s.Phase, got)
	}
}

func TestNextEncounterAndPetition(t *testing.T) {
	e := liveEncounter(t, models.AbilitySmite, models.AbilityManifest, models.AbilityTwist)
	s := e.State()
	s.EncounterResolved = true
	s.EncountersTarget = 5
	s.RunEncounterQueue = []string{"storm", "shrine", "volcano", "heresy", "drought"}
	s.CarryOverInstability = 9
	s.StrengthBonuses.CarryoverDecayBonus = 4
	s.NextCastFree = true
	e.Restore(s)

	e.NextEncounter()
	s = e.State()
	if s.Phase != models.PhaseEncounter || s.EncountersCompleted != 1 {
		t.Fatalf("phase %s completed %d", s.Phase, s.EncountersCompleted)
	}
	if s.CurrentEncounter.TemplateID != "shrine" {
		t.Errorf("template = %s, want shrine", s.CurrentEncounter.TemplateID)
	}
	if s.CarryOverInstability != 5 {
		t.Errorf("carry-over = %d, want 5 after decay", s.CarryOverInstability)
	}
	if s.CastsThisEncounter != 0 || s.NextCastFree || s.EncounterResolved {
		t.Errorf("encounter counters not reset: casts %d free %v resolved %v", s.CastsThisEncounter, s.NextCastFree, s.EncounterResolved)
	}

	s.EncounterResolved = true
	e.Restore(s)
	e.NextEncounter()
	s = e.State()
	if s.Phase != models.PhasePetition {
		t.Fatalf("phase = %s, want petition", s.Phase)
	}
	if len(s.PetitionOptions) != PetitionChoiceCount {
		t.Fatalf("petition options = %v", s.PetitionOptions)
	}

	e.SelectPetition("not-offered")
	if e.State().Phase != models.PhasePetition {
		t.Fatal("unoffered petition accepted")
	}

	choice := s.PetitionOptions[2].ID
	e.SelectPetition(choice)
	s = e.State()
	if s.Phase != models.PhaseEncounter || s.CurrentEncounter.TemplateID != choice {
		t.Fatalf("phase %s template %s, want %s", s.Phase, s.CurrentEncounter.TemplateID, choice)
	}
	if s.RunEncounterQueue[2] != choice {
		t.Errorf("queue slot not replaced: %v", s.RunEncounterQueue)
	}
}

func TestRunEndsInUpgrade(t *testing.T) {
	c := catalog(t)
	var summaries []models.RunSummary
	e := NewEngine(c, random.New(1), WithRunEndHook(func(s models.RunSummary) { summaries = append(summaries, s) }))

	s := models.NewRunState(c.TemplateIDs())
	s.Phase = models.PhaseEncounter
	s.Doctrine = &models.Doctrine{ID: models.DoctrineDominion}
	s.EncountersCompleted = 2
	s.EncountersTarget = 3
	s.EncounterResolved = true
	s.RunEssenceGained = 9
	s.Essence = 40
	s.RunOutcomes[models.OutcomePerfect] = 3
	e.Restore(s)

	e.NextEncounter()
	s = e.State()
	if s.Phase != models.PhaseUpgrade {
		t.Fatalf("phase = %s, want upgrade", s.Phase)
	}
	if len(s.UpgradeOptions) != 3 {
		t.Errorf("upgrade options = %v", s.UpgradeOptions)
	}
	want := []models.RunSummary{{
		Doctrine:            models.DoctrineDominion,
		EncountersCompleted: 3,
		EncountersTarget:    3,
		EssenceGained:       9,
		Outcomes:            map[models.Outcome]int{models.OutcomePerfect: 3},
	}}
	if diff := cmp.Diff(want, summaries); diff != "" {
		t.Errorf("summaries (-want +got):\n%s", diff)
	}

	e.EndRun()
	if len(summaries) != 1 {
		t.Errorf("leaving the upgrade screen recorded another run: %d", len(summaries))
	}
	if s := e.State(); s.Phase != models.PhaseMenu || s.Essence != 40 {
		t.Errorf("phase %s essence %d", s.Phase, s.Essence)
	}
}

func TestSelectUpgrade(t *testing.T) {
	c := catalog(t)
	vessel, _ := c.Upgrade("tempered-vessel")
	storm, _ := c.Upgrade("storm-calling")

	setup := func(essence int) *Engine {
		e := NewEngine(c, random.New(1))
		s := e.State()
		s.Phase = models.PhaseUpgrade
		s.Essence = essence
		s.UpgradeOptions = []models.Upgrade{vessel, storm}
		e.Restore(s)
		return e
	}

	e := setup(10)
	e.SelectUpgrade(vessel.ID)
	if s := e.State(); s.Phase != models.PhaseUpgrade || s.Essence != 10 {
		t.Fatalf("unaffordable upgrade bought: phase %s essence %d", s.Phase, s.Essence)
	}
	e.SelectUpgrade("favorable-providence")
	if e.State().Phase != models.PhaseUpgrade {
		t.Fatal("unoffered upgrade bought")
	}

	e = setup(40)
	e.SelectUpgrade(vessel.ID)
	s := e.State()
	if s.Phase != models.PhaseMenu {
		t.Fatalf("phase = %s", s.Phase)
	}
	if s.Essence != 40-vessel.Cost {
		t.Errorf("essence = %d", s.Essence)
	}
	if s.StrengthBonuses.MaxStrainBonus != 3 || s.MaxStrain != models.BaseMaxStrain+3 {
		t.Errorf("bonus %d max strain %d", s.StrengthBonuses.MaxStrainBonus, s.MaxStrain)
	}
	if !s.OwnsUpgrade(vessel.ID) {
		t.Error("upgrade not owned")
	}

	e = setup(40)
	e.SelectUpgrade(storm.ID)
	if got := e.State().WorldWeights["storm"]; got != 3 {
		t.Errorf("storm weight = %d, want 3", got)
	}
}

func TestSkipUpgrade(t *testing.T) {
	e := NewEngine(catalog(t), random.New(1))
	s := e.State()
	s.Phase = models.PhaseUpgrade
	s.Essence = 25
	s.OwnedUpgrades = []string{"votive-flow"}
	s.CurrentStrain = 9
	e.Restore(s)

	e.SkipUpgrade()
	s = e.State()
	if s.Phase != models.PhaseMenu || s.Essence != 25 || !s.OwnsUpgrade("votive-flow") {
		t.Errorf("permanent progress lost: %+v", s)
	}
	if s.CurrentStrain != 0 {
		t.Errorf("run state not reset, strain = %d", s.CurrentStrain)
	}
}

func TestEndRunAbandons(t *testing.T) {
	var got *models.RunSummary
	e := NewEngine(catalog(t), random.New(2), WithRunEndHook(func(s models.RunSummary) { got = &s }))
	e.StartRun(models.DoctrineDominion)
	e.SelectDraftAbility(e.State().DraftOptions[0].ID)
	e.EndRun()

	s := e.State()
	if s.Phase != models.PhaseMenu || s.CurrentEncounter != nil || s.Doctrine != nil {
		t.Errorf("run not reset: %+v", s)
	}
	if got == nil || !got.Abandoned || got.Doctrine != models.DoctrineDominion {
		t.Errorf("summary = %+v", got)
	}
	if s.LastRunSummary == nil || !s.LastRunSummary.Abandoned {
		t.Errorf("last run summary = %+v", s.LastRunSummary)
	}
}

func TestResetProgress(t *testing.T) {
	e := NewEngine(catalog(t), random.New(2))
	s := e.State()
	s.Essence = 99
	s.OwnedUpgrades = []string{"tempered-vessel"}
	s.StrengthBonuses.MaxStrainBonus = 3
	e.Restore(s)

	e.ResetProgress()
	s = e.State()
	if s.Essence != 0 || len(s.OwnedUpgrades) != 0 || s.StrengthBonuses != (models.StrengthBonuses{}) {
		t.Errorf("progress survived reset: %+v", s)
	}
}

func TestActionLogIsBounded(t *testing.T) {
	e := liveEncounter(t, models.AbilityWitness)
	s := e.State()
	s.CurrentEncounter.TurnLimit = 40
	s.MaxStrain = 1000
	e.Restore(s)

	for range 20 {
		if e.State().Phase == models.PhaseBoon {
			e.SelectBoonAbility(nil)
		}
		e.CastAbility(models.AbilityWitness)
	}
	log := e.State().ActionLog
	if len(log) != ActionLogLimit {
		t.Fatalf("log length = %d", len(log))
	}
	if log[len(log)-1].Turn != 20 {
		t.Errorf("last entry turn = %d, want 20", log[len(log)-1].Turn)
	}
}

// TestFullRuns drives complete runs and checks the state invariants after
// every command.
func TestFullRuns(t *testing.T) {
	c := catalog(t)
	for seed := uint64(1); seed <= 25; seed++ {
		runs := 0
		e := NewEngine(c, random.New(seed), WithRunEndHook(func(models.RunSummary) { runs++ }))
		e.StartRun(models.DoctrineDominion)

		for step := 0; step < 500 && e.State().Phase != models.PhaseUpgrade; step++ {
			s := e.State()
			switch s.Phase {
			case models.PhaseDraft:
				e.SelectDraftAbility(s.DraftOptions[0].ID)
			case models.PhaseBoon:
				id := s.BoonOptions[0].ID
				e.SelectBoonAbility(&id)
			case models.PhasePetition:
				e.SelectPetition(s.PetitionOptions[0].ID)
			case models.PhaseEncounter:
				if s.EncounterResolved {
					e.NextEncounter()
					continue
				}
				id := s.EncounterAbilityIDs[step%len(s.EncounterAbilityIDs)]
				e.CastAbility(id)
				checkInvariants(t, seed, s, e.State())
			default:
				t.Fatalf("seed %d: unexpected phase %s", seed, s.Phase)
			}
		}

		s := e.State()
		if s.Phase != models.PhaseUpgrade {
			t.Fatalf("seed %d: run never finished, phase %s", seed, s.Phase)
		}
		if s.EncountersCompleted != s.EncountersTarget || runs != 1 {
			t.Errorf("seed %d: completed %d of %d, runs recorded %d", seed, s.EncountersCompleted, s.EncountersTarget, runs)
		}
		outcomes := 0
		for _, n := range s.RunOutcomes {
			outcomes += n
		}
		if outcomes != s.EncountersTarget {
			t.Errorf("seed %d: %d outcomes for %d encounters", seed, outcomes, s.EncountersTarget)
		}
	}
}

func checkInvariants(t *testing.T, seed uint64, before, after *models.RunState) {
	t.Helper()
	enc := after.CurrentEncounter
	if after.CurrentStrain < 0 || enc.PressureRemaining < 0 || enc.ConsequenceMeter < 0 {
		t.Fatalf("seed %d: negative meter: strain %d pressure %d consequence %d",
			seed, after.CurrentStrain, enc.PressureRemaining, enc.ConsequenceMeter)
	}
	if after.CastsThisEncounter != before.CastsThisEncounter+1 {
		t.Fatalf("seed %d: casts went %d -> %d", seed, before.CastsThisEncounter, after.CastsThisEncounter)
	}
	if before.CurrentEncounter.ThresholdRuptureUsed && !enc.ThresholdRuptureUsed {
		t.Fatalf("seed %d: rupture flag reset", seed)
	}
	if after.Essence < before.Essence {
		t.Fatalf("seed %d: essence dropped from %d to %d", seed, before.Essence, after.Essence)
	}
	for _, id := range after.EncounterAbilityIDs {
		if !slices.ContainsFunc(after.Abilities, func(a models.Ability) bool { return a.ID == id }) {
			t.Fatalf("seed %d: pooled %s missing from roster", seed, id)
		}
	}
	if !slices.Equal(before.EncounterAbilityIDs, after.EncounterAbilityIDs) {
		t.Fatalf("seed %d: pool changed during a cast", seed)
	}
}
