// Package content loads the static game tables: abilities, encounter
// templates, modifiers, doctrines, upgrades and resolution flavor text.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/tatianab/fallen-god/internal/models"
)

//go:embed content.yaml
var defaultContent []byte

// ErrInvalidContent wraps every validation failure.
var ErrInvalidContent = errors.New("invalid content")

// Catalog is the immutable set of tables the game reads.
type Catalog struct {
	CoreAbilities []models.AbilityID                 `yaml:"core_abilities"`
	Abilities     []models.Ability                   `yaml:"abilities"`
	Templates     []models.EncounterTemplate         `yaml:"encounter_templates"`
	Modifiers     []models.EncounterModifier         `yaml:"encounter_modifiers"`
	Doctrines     []models.Doctrine                  `yaml:"doctrines"`
	Upgrades      []models.Upgrade                   `yaml:"upgrades"`
	Flavor        map[models.FlavorCategory][]string `yaml:"resolution_flavor"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	c, err := Parse(defaultContent)
	if err != nil {
		return nil, fmt.Errorf("embedded content: %w", err)
	}
	return c, nil
}

// Load reads a catalog from path. An empty path returns the embedded one.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content file %s: %w", path, err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("content file %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidContent, fmt.Sprintf(format, args...))
}

// Validate checks ids are unique and every cross reference resolves.
func (c *Catalog) Validate() error {
	if len(c.Abilities) == 0 {
		return invalid("abilities is empty")
	}
	if len(c.Templates) == 0 {
		return invalid("encounter_templates is empty")
	}
	if len(c.Modifiers) == 0 {
		return invalid("encounter_modifiers is empty")
	}

	abilities := make(map[models.AbilityID]struct{}, len(c.Abilities))
	for _, a := range c.Abilities {
		if !a.ID.Valid() {
			return invalid("unknown ability id %q", a.ID)
		}
		if _, dup := abilities[a.ID]; dup {
			return invalid("duplicate ability %q", a.ID)
		}
		if !a.Category.Valid() {
			return invalid("ability %q has unknown category %q", a.ID, a.Category)
		}
		if a.BaseStrainCost < 0 || a.BasePressure < 0 || a.BaseEssence < 0 {
			return invalid("ability %q has a negative cost or reward", a.ID)
		}
		abilities[a.ID] = struct{}{}
	}

	if len(c.CoreAbilities) == 0 {
		return invalid("core_abilities is empty")
	}
	for _, id := range c.CoreAbilities {
		if _, ok := abilities[id]; !ok {
			return invalid("core ability %q is not defined", id)
		}
	}

	templates := make(map[string]struct{}, len(c.Templates))
	for _, t := range c.Templates {
		if t.ID == "" {
			return invalid("encounter template missing 'id'")
		}
		if _, dup := templates[t.ID]; dup {
			return invalid("duplicate encounter template %q", t.ID)
		}
		if t.BasePressure <= 0 || t.ConsequenceThreshold <= 0 {
			return invalid("encounter template %q needs positive pressure and threshold", t.ID)
		}
		templates[t.ID] = struct{}{}
	}

	modifiers := make(map[string]struct{}, len(c.Modifiers))
	for _, m := range c.Modifiers {
		if m.ID == "" {
			return invalid("encounter modifier missing 'id'")
		}
		if _, dup := modifiers[m.ID]; dup {
			return invalid("duplicate encounter modifier %q", m.ID)
		}
		for _, am := range m.Effects.AbilityEffects {
			if _, ok := abilities[am.AbilityID]; !ok {
				return invalid("modifier %q overrides unknown ability %q", m.ID, am.AbilityID)
			}
		}
		modifiers[m.ID] = struct{}{}
	}

	doctrines := make(map[models.DoctrineID]struct{}, len(c.Doctrines))
	for _, d := range c.Doctrines {
		if _, dup := doctrines[d.ID]; dup {
			return invalid("duplicate doctrine %q", d.ID)
		}
		if !slices.Contains(c.CoreAbilities, d.StartingAbilityID) {
			return invalid("doctrine %q starts with non-core ability %q", d.ID, d.StartingAbilityID)
		}
		doctrines[d.ID] = struct{}{}
	}
	if len(doctrines) == 0 {
		return invalid("doctrines is empty")
	}

	upgrades := make(map[string]struct{}, len(c.Upgrades))
	for _, u := range c.Upgrades {
		if u.ID == "" {
			return invalid("upgrade missing 'id'")
		}
		if _, dup := upgrades[u.ID]; dup {
			return invalid("duplicate upgrade %q", u.ID)
		}
		if u.Tier < 1 || u.Tier > 3 {
			return invalid("upgrade %q has tier %d outside 1-3", u.ID, u.Tier)
		}
		if u.Cost <= 0 {
			return invalid("upgrade %q has no cost", u.ID)
		}
		if u.Category != models.UpgradeStrength && u.Category != models.UpgradeWorld {
			return invalid("upgrade %q has unknown category %q", u.ID, u.Category)
		}
		if w := u.EncounterWeightDelta; w != nil {
			if _, ok := templates[w.EncounterID]; !ok {
				return invalid("upgrade %q weights unknown template %q", u.ID, w.EncounterID)
			}
		}
		upgrades[u.ID] = struct{}{}
	}

	for _, fc := range FlavorCategories {
		if len(c.Flavor[fc]) == 0 {
			return invalid("resolution_flavor.%s is empty", fc)
		}
	}
	return nil
}

// FlavorCategories lists every bank the catalog must provide.
var FlavorCategories = []models.FlavorCategory{
	models.FlavorPerfectSuccess,
	models.FlavorLowConsequence,
	models.FlavorHighConsequence,
	models.FlavorThresholdExceeded,
	models.FlavorBarelySucceeded,
}

// Ability looks up an ability by id.
func (c *Catalog) Ability(id models.AbilityID) (models.Ability, bool) {
	for _, a := range c.Abilities {
		if a.ID == id {
			return a, true
		}
	}
	return models.Ability{}, false
}

// Template looks up an encounter template by id.
func (c *Catalog) Template(id string) (models.EncounterTemplate, bool) {
	for _, t := range c.Templates {
		if t.ID == id {
			return t, true
		}
	}
	return models.EncounterTemplate{}, false
}

// TemplateIDs returns template ids in table order.
func (c *Catalog) TemplateIDs() []string {
	ids := make([]string, len(c.Templates))
	for i, t := range c.Templates {
		ids[i] = t.ID
	}
	return ids
}

// Doctrine looks up a doctrine by id.
func (c *Catalog) Doctrine(id models.DoctrineID) (models.Doctrine, bool) {
	for _, d := range c.Doctrines {
		if d.ID == id {
			return d, true
		}
	}
	return models.Doctrine{}, false
}

// Upgrade looks up an upgrade by id.
func (c *Catalog) Upgrade(id string) (models.Upgrade, bool) {
	for _, u := range c.Upgrades {
		if u.ID == id {
			return u, true
		}
	}
	return models.Upgrade{}, false
}

// IsCore reports whether id is granted to every run.
func (c *Catalog) IsCore(id models.AbilityID) bool {
	return slices.Contains(c.CoreAbilities, id)
}

// StartingRoster returns the core abilities with the doctrine's starter first.
func (c *Catalog) StartingRoster(first models.AbilityID) []models.Ability {
	roster := make([]models.Ability, 0, len(c.CoreAbilities))
	if a, ok := c.Ability(first); ok && c.IsCore(first) {
		roster = append(roster, a)
	}
	for _, id := range c.CoreAbilities {
		if id == first {
			continue
		}
		if a, ok := c.Ability(id); ok {
			roster = append(roster, a)
		}
	}
	return roster
}

// FlavorBank returns the flavor lines for a resolution category.
func (c *Catalog) FlavorBank(fc models.FlavorCategory) []string {
	return c.Flavor[fc]
}
