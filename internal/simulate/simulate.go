// Package simulate plays whole runs without a human, for balance checks and
// smoke tests.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/tatianab/fallen-god/internal/engine"
	"github.com/tatianab/fallen-god/internal/models"
	"github.com/tatianab/fallen-god/internal/random"
)

// DefaultMaxSteps bounds a single simulated run.
const DefaultMaxSteps = 1000

// ErrStepLimit is returned when a run does not finish within the step budget.
var ErrStepLimit = errors.New("simulate: step limit reached")

// Policy makes every decision a player would.
type Policy interface {
	Doctrine(options []models.Doctrine) models.DoctrineID
	Draft(state *models.RunState) models.AbilityID
	Cast(state *models.RunState, preview func(models.AbilityID) *models.AbilityEffect) models.AbilityID
	Boon(state *models.RunState) *models.AbilityID
	Petition(state *models.RunState) string
	// Upgrade returns "" to skip.
	Upgrade(state *models.RunState) string
}

// Report describes one simulated run.
type Report struct {
	Steps      int
	Casts      int
	Summary    models.RunSummary
	Final      *models.RunState
	Transcript []string
}

// Run plays one run from the menu to the post-run menu.
func Run(ctx context.Context, eng *engine.Engine, policy Policy, maxSteps int) (*Report, error) {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	if s := eng.State(); s.Phase != models.PhaseMenu {
		return nil, fmt.Errorf("simulate: engine is in phase %s, want menu", s.Phase)
	}

	r := &Report{}
	say := func(format string, args ...any) {
		r.Transcript = append(r.Transcript, fmt.Sprintf(format, args...))
	}

	doctrine := policy.Doctrine(eng.Catalog().Doctrines)
	eng.StartRun(doctrine)
	s := eng.State()
	if s.Phase == models.PhaseMenu {
		return nil, fmt.Errorf("simulate: run did not start with doctrine %q", doctrine)
	}
	say("Doctrine %s, %d encounters: %v", doctrine, s.EncountersTarget, s.RunEncounterQueue)

	for r.Steps = 1; r.Steps <= maxSteps; r.Steps++ {
		if err := ctx.Err(); err != nil {
			return r, err
		}
		s := eng.State()
		switch s.Phase {
		case models.PhaseMenu:
			r.Final = s
			if s.LastRunSummary != nil {
				r.Summary = *s.LastRunSummary
			}
			say("Run over: %d/%d encounters, %d essence gained, bank %d",
				r.Summary.EncountersCompleted, r.Summary.EncountersTarget, r.Summary.EssenceGained, s.Essence)
			return r, nil

		case models.PhaseDraft:
			id := policy.Draft(s)
			say("Draft %s", id)
			eng.SelectDraftAbility(id)

		case models.PhaseEncounter:
			if s.EncounterResolved {
				if res := s.LastEncounterResolution; res != nil {
					say("  %s: %s", res.Outcome, res.FlavorText)
				}
				eng.NextEncounter()
				continue
			}
			if s.CastsThisEncounter == 0 {
				enc := s.CurrentEncounter
				say("Encounter %s (%s, %s): pressure %d, %d turns",
					enc.Title, enc.ModifierName, enc.Urgency, enc.StartingPressure, enc.TurnLimit)
			}
			id := policy.Cast(s, eng.Preview)
			eng.CastAbility(id)
			r.Casts++
			if after := eng.State(); len(after.ActionLog) > 0 {
				say("  T%d %s", after.ActionLog[len(after.ActionLog)-1].Turn, after.ActionLog[len(after.ActionLog)-1].Summary)
			}

		case models.PhaseBoon:
			id := policy.Boon(s)
			if id != nil {
				say("Boon %s", *id)
			}
			eng.SelectBoonAbility(id)

		case models.PhasePetition:
			id := policy.Petition(s)
			say("Petition %s", id)
			eng.SelectPetition(id)

		case models.PhaseUpgrade:
			id := policy.Upgrade(s)
			if id != "" {
				eng.SelectUpgrade(id)
			}
			if eng.State().Phase == models.PhaseUpgrade {
				eng.SkipUpgrade()
			} else {
				say("Upgrade %s", id)
			}
		}
	}
	return r, ErrStepLimit
}

// Greedy scores every preview and casts the best one. It drafts and takes
// boons in offer order and buys the most expensive affordable upgrade.
type Greedy struct {
	DoctrineID models.DoctrineID
}

func (g Greedy) Doctrine(options []models.Doctrine) models.DoctrineID {
	if g.DoctrineID != "" || len(options) == 0 {
		return g.DoctrineID
	}
	return options[0].ID
}

func (Greedy) Draft(s *models.RunState) models.AbilityID {
	return s.DraftOptions[0].ID
}

func (Greedy) Cast(s *models.RunState, preview func(models.AbilityID) *models.AbilityEffect) models.AbilityID {
	var (
		best  models.AbilityID
		score = math.MinInt
	)
	for _, id := range s.EncounterAbilityIDs {
		e := preview(id)
		if e == nil {
			continue
		}
		if v := Score(e, s); v > score {
			best, score = id, v
		}
	}
	return best
}

func (Greedy) Boon(s *models.RunState) *models.AbilityID {
	if len(s.BoonOptions) == 0 {
		return nil
	}
	id := s.BoonOptions[0].ID
	return &id
}

func (Greedy) Petition(s *models.RunState) string {
	return s.PetitionOptions[0].ID
}

func (Greedy) Upgrade(s *models.RunState) string {
	best := ""
	cost := 0
	for _, u := range s.UpgradeOptions {
		if u.Cost <= s.Essence && u.Cost > cost {
			best, cost = u.ID, u.Cost
		}
	}
	return best
}

// Score rates a previewed cast: pressure and essence are good, consequence
// and strain are bad, crossing the threshold is worse.
func Score(e *models.AbilityEffect, s *models.RunState) int {
	v := 2*e.PressureDelta + 3*e.EssenceDelta - e.ConsequenceDelta
	switch e.ProjectedStrainLevel {
	case models.StrainHigh:
		v -= 6
	case models.StrainCritical:
		v -= 15
	}
	if e.SynergyLabel != "" {
		v += 2
	}
	if e.WillGrantFreeCast {
		v += 3
	}
	if e.WillExceedThreshold && s.CurrentEncounter != nil && !s.CurrentEncounter.ThresholdExceeded {
		v -= 8
	}
	return v
}

// Random makes uniformly random choices. Useful for fuzzing the engine.
type Random struct {
	Rng random.Source
}

func (p Random) Doctrine(options []models.Doctrine) models.DoctrineID {
	return random.Pick(p.Rng, options).ID
}

func (p Random) Draft(s *models.RunState) models.AbilityID {
	return random.Pick(p.Rng, s.DraftOptions).ID
}

func (p Random) Cast(s *models.RunState, _ func(models.AbilityID) *models.AbilityEffect) models.AbilityID {
	return random.Pick(p.Rng, s.EncounterAbilityIDs)
}

func (p Random) Boon(s *models.RunState) *models.AbilityID {
	if len(s.BoonOptions) == 0 || random.Chance(p.Rng, 0.3) {
		return nil
	}
	id := random.Pick(p.Rng, s.BoonOptions).ID
	return &id
}

func (p Random) Petition(s *models.RunState) string {
	return random.Pick(p.Rng, s.PetitionOptions).ID
}

func (p Random) Upgrade(s *models.RunState) string {
	if len(s.UpgradeOptions) == 0 {
		return ""
	}
	return random.Pick(p.Rng, s.UpgradeOptions).ID
}
