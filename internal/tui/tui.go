package tui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tatianab/fallen-god/internal/engine"
	"github.com/tatianab/fallen-god/internal/models"
)

// SnapshotName is the save slot the TUI reads and writes.
const SnapshotName = "current"

type choice struct {
	label  string
	detail string
	pick   func(*engine.Engine)
}

type model struct {
	engine  *engine.Engine
	saveDir string
	log     *slog.Logger

	viewport     viewport.Model
	cursor       int
	width        int
	height       int
	status       string
	confirmReset bool
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)

	gameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			PaddingLeft(1)

	choiceStyle = lipgloss.NewStyle().
			PaddingLeft(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Bold(true)

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))
)

// NewModel wraps eng. Every accepted command is saved to saveDir.
func NewModel(eng *engine.Engine, saveDir string, log *slog.Logger) model {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	vp := viewport.New(80, 12)
	m := model{
		engine:   eng,
		saveDir:  saveDir,
		log:      log,
		viewport: vp,
	}
	m.refresh()
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		if key != "R" {
			m.confirmReset = false
		}
		switch key {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.choices())-1 {
				m.cursor++
			}

		case "enter", " ":
			m.choose(m.cursor)

		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			m.choose(int(key[0] - '1'))

		case "x":
			if m.engine.State().Phase != models.PhaseMenu {
				m.apply(func(e *engine.Engine) { e.EndRun() })
			}

		case "R":
			if m.engine.State().Phase != models.PhaseMenu {
				break
			}
			if !m.confirmReset {
				m.confirmReset = true
				m.status = "Press R again to erase all progress."
				break
			}
			m.confirmReset = false
			m.apply(func(e *engine.Engine) { e.ResetProgress() })
			m.status = "Progress erased."

		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = int(float64(msg.Width) * 0.70)
		m.viewport.Height = max(5, msg.Height/2-4)
		m.refresh()
	}
	return m, nil
}

func (m *model) choose(i int) {
	choices := m.choices()
	if i < 0 || i >= len(choices) {
		return
	}
	m.apply(choices[i].pick)
}

// apply runs one engine command, then saves and redraws.
func (m *model) apply(cmd func(*engine.Engine)) {
	before := m.engine.State().Phase
	cmd(m.engine)
	s := m.engine.State()
	if s.Phase != before {
		m.cursor = 0
	}
	m.cursor = min(m.cursor, max(0, len(m.choices())-1))
	m.status = ""
	if m.saveDir != "" {
		if err := s.Save(m.saveDir, SnapshotName); err != nil {
			m.log.Error("save failed", "err", err)
			m.status = fmt.Sprintf("Save failed: %v", err)
		}
	}
	m.refresh()
}

func (m *model) refresh() {
	m.viewport.SetContent(m.renderLog())
	m.viewport.GotoBottom()
}

// castable lists the encounter pool entries that resolve to a roster ability.
func castable(s *models.RunState) []models.Ability {
	var out []models.Ability
	for _, id := range s.EncounterAbilityIDs {
		if a, ok := s.FindAbility(id); ok {
			out = append(out, a)
		}
	}
	return out
}

func (m model) choices() []choice {
	s := m.engine.State()
	var out []choice
	switch s.Phase {
	case models.PhaseMenu:
		for _, d := range m.engine.Catalog().Doctrines {
			out = append(out, choice{
				label:  "Begin as " + d.Name,
				detail: d.PassiveDescription,
				pick:   func(e *engine.Engine) { e.StartRun(d.ID) },
			})
		}

	case models.PhaseDraft:
		for _, a := range s.DraftOptions {
			out = append(out, abilityChoice(a, func(e *engine.Engine) { e.SelectDraftAbility(a.ID) }))
		}

	case models.PhaseEncounter:
		if s.EncounterResolved {
			label := "Next encounter"
			if s.EncountersCompleted+1 >= s.EncountersTarget {
				label = "Finish the run"
			}
			return []choice{{label: label, pick: func(e *engine.Engine) { e.NextEncounter() }}}
		}
		for _, a := range castable(s) {
			out = append(out, abilityChoice(a, func(e *engine.Engine) { e.CastAbility(a.ID) }))
		}

	case models.PhaseBoon:
		for _, a := range s.BoonOptions {
			out = append(out, abilityChoice(a, func(e *engine.Engine) { e.SelectBoonAbility(&a.ID) }))
		}
		out = append(out, choice{label: "Decline", pick: func(e *engine.Engine) { e.SelectBoonAbility(nil) }})

	case models.PhasePetition:
		for _, t := range s.PetitionOptions {
			out = append(out, choice{
				label:  t.Title,
				detail: t.Description,
				pick:   func(e *engine.Engine) { e.SelectPetition(t.ID) },
			})
		}

	case models.PhaseUpgrade:
		for _, u := range s.UpgradeOptions {
			label := fmt.Sprintf("%s (tier %d, %d essence)", u.Name, u.Tier, u.Cost)
			if u.Cost > s.Essence {
				label += " - cannot afford"
			}
			out = append(out, choice{
				label:  label,
				detail: u.Description,
				pick:   func(e *engine.Engine) { e.SelectUpgrade(u.ID) },
			})
		}
		out = append(out, choice{label: "Skip", pick: func(e *engine.Engine) { e.SkipUpgrade() }})
	}
	return out
}

func abilityChoice(a models.Ability, pick func(*engine.Engine)) choice {
	return choice{
		label:  fmt.Sprintf("%s [%s]", a.Name, a.Category.Label()),
		detail: a.Description,
		pick:   pick,
	}
}

func (m model) View() string {
	s := m.engine.State()
	logWidth := m.viewport.Width

	header := titleStyle.Render(fmt.Sprintf("FALLEN GOD - %s", strings.ToUpper(string(s.Phase))))
	main := lipgloss.JoinHorizontal(lipgloss.Top,
		m.viewport.View(),
		m.renderState(s),
	)

	var b strings.Builder
	for i, c := range m.choices() {
		line := fmt.Sprintf("%d. %s", i+1, c.label)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> "+line) + "\n")
			if c.detail != "" {
				b.WriteString(helpStyle.Render("   "+c.detail) + "\n")
			}
			continue
		}
		b.WriteString(choiceStyle.Render("  "+line) + "\n")
	}
	if preview := m.renderPreview(s); preview != "" {
		b.WriteString("\n" + gameStyle.Width(logWidth).Render(preview) + "\n")
	}

	status := ""
	if m.status != "" {
		status = "\n" + warnStyle.Render(m.status)
	}
	help := helpStyle.Render("up/down or 1-9 to choose, enter to confirm, x to abandon the run, R twice in the menu to reset, q to quit")

	return "\n" + lipgloss.JoinVertical(lipgloss.Left,
		header,
		main,
		"\n"+b.String(),
		status,
		help,
	) + "\n"
}

func (m model) renderPreview(s *models.RunState) string {
	if s.Phase != models.PhaseEncounter || s.EncounterResolved {
		return ""
	}
	pool := castable(s)
	if m.cursor >= len(pool) {
		return ""
	}
	e := m.engine.Preview(pool[m.cursor].ID)
	if e == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Preview: -%d pressure, +%d essence, %+d consequence (meter %d/%d), strain %d -> %d (%s)\n",
		e.PressureDelta, e.EssenceDelta, e.ConsequenceDelta,
		e.ProjectedConsequenceMeter, s.CurrentEncounter.ConsequenceThreshold,
		s.CurrentStrain, e.ProjectedStrain, e.ProjectedStrainLevel)
	if e.SynergyLabel != "" {
		fmt.Fprintf(&b, "Synergy: %s\n", e.SynergyLabel)
	}
	if e.WillTriggerThresholdRupture {
		b.WriteString(warnStyle.Render("This cast will rupture the threshold.") + "\n")
	}
	for _, n := range e.Notes {
		b.WriteString("  " + n + "\n")
	}
	return b.String()
}

func (m model) renderState(s *models.RunState) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("DIVINITY") + "\n")
	fmt.Fprintf(&b, "Essence: %d\n", s.Essence)
	if s.Doctrine != nil {
		fmt.Fprintf(&b, "Doctrine: %s\n", s.Doctrine.Name)
	}
	fmt.Fprintf(&b, "Strain: %d/%d (%s)\n", s.CurrentStrain, s.MaxStrain, s.StrainLevel)
	if s.EncountersTarget > 0 {
		fmt.Fprintf(&b, "Encounters: %d/%d\n", s.EncountersCompleted, s.EncountersTarget)
		fmt.Fprintf(&b, "Instability: %d\n", s.CarryOverInstability)
	}
	if s.NextCastFree {
		b.WriteString("Next cast is free\n")
	}
	if s.LastSynergy != "" && s.SynergyStreak > 0 {
		fmt.Fprintf(&b, "Synergy streak: %d (%s)\n", s.SynergyStreak, s.LastSynergy)
	}
	b.WriteString("\n")

	if enc := s.CurrentEncounter; enc != nil {
		b.WriteString(titleStyle.Render("CRISIS") + "\n")
		fmt.Fprintf(&b, "%s\n%s (%s)\n", enc.Title, enc.ModifierName, enc.Urgency)
		fmt.Fprintf(&b, "Pressure: %d/%d\n", enc.PressureRemaining, enc.StartingPressure)
		fmt.Fprintf(&b, "Consequence: %d/%d\n", enc.ConsequenceMeter, enc.ConsequenceThreshold)
		fmt.Fprintf(&b, "Turn: %d/%d\n", min(enc.Turn, enc.TurnLimit), enc.TurnLimit)
		if enc.PressureRegen > 0 {
			fmt.Fprintf(&b, "Regrows %d pressure a turn\n", enc.PressureRegen)
		}
		b.WriteString("\n")
	}

	if len(s.RunForecast) > 0 {
		b.WriteString(titleStyle.Render("FORECAST") + "\n")
		for _, f := range s.RunForecast {
			fmt.Fprintf(&b, "%s x%d\n", f.Title, f.Count)
		}
		b.WriteString("\n")
	}

	if len(s.OwnedUpgrades) > 0 {
		b.WriteString(titleStyle.Render("UPGRADES") + "\n")
		for _, id := range s.OwnedUpgrades {
			b.WriteString("- " + id + "\n")
		}
	}

	stateWidth := int(float64(m.width) * 0.27)
	return stateStyle.Width(stateWidth).Height(m.viewport.Height).Render(b.String())
}

func (m model) renderLog() string {
	s := m.engine.State()
	width := m.viewport.Width
	var b strings.Builder

	if enc := s.CurrentEncounter; enc != nil {
		b.WriteString(gameStyle.Bold(true).Render(enc.Title) + "\n")
		b.WriteString(gameStyle.Width(width).Render(enc.Description) + "\n")
		if enc.ModifierDescription != "" {
			b.WriteString(helpStyle.Width(width).Render(enc.ModifierDescription) + "\n")
		}
		b.WriteString("\n")
	}
	for _, entry := range s.ActionLog {
		b.WriteString(gameStyle.Width(width).Render(fmt.Sprintf("T%d %s", entry.Turn, entry.Summary)) + "\n")
	}
	if res := s.LastEncounterResolution; res != nil && s.EncounterResolved {
		fmt.Fprintf(&b, "\n%s\n", titleStyle.Render(strings.ToUpper(string(res.Outcome))))
		fmt.Fprintf(&b, "+%d essence, +%d instability\n", res.EssenceGained, res.CarryoverAdded)
		if res.ConsequenceAftermath != "" {
			b.WriteString(gameStyle.Width(width).Render(res.ConsequenceAftermath) + "\n")
		}
	}
	if sum := s.LastRunSummary; sum != nil && s.Phase == models.PhaseMenu {
		verb := "completed"
		if sum.Abandoned {
			verb = "abandoned"
		}
		fmt.Fprintf(&b, "Last run %s: %d/%d encounters, %d essence.\n",
			verb, sum.EncountersCompleted, sum.EncountersTarget, sum.EssenceGained)
	}
	if s.LastResolution != "" {
		b.WriteString("\n" + gameStyle.Width(width).Render(s.LastResolution) + "\n")
	}
	return b.String()
}

// Run starts the full-screen TUI.
func Run(eng *engine.Engine, saveDir string, log *slog.Logger) error {
	p := tea.NewProgram(NewModel(eng, saveDir, log), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
