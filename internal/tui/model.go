package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"questlife/internal/game"
	"questlife/internal/ledger"
	"questlife/internal/quests"
	"questlife/internal/ui"
)

// service is the part of engine.Service the board drives.
type service interface {
	Hero() game.User
	Quests(f quests.Filter) []game.Quest
	Bars() []game.ProgressBar
	CompleteQuest(ctx context.Context, id string) (*quests.CompleteResult, error)
}

type boardModel struct {
	ctx context.Context
	svc service

	width  int
	height int

	hero   game.User
	quests []game.Quest
	bars   []game.ProgressBar

	selected int

	keys  keyMap
	help  help.Model
	meter progress.Model

	lastLog string
	loading bool
}

type loadedMsg struct {
	hero   game.User
	quests []game.Quest
	bars   []game.ProgressBar
}

type completedMsg struct {
	title string
	res   *quests.CompleteResult
	err   error
}

func newBoardModel(ctx context.Context, svc service) boardModel {
	return boardModel{
		ctx:     ctx,
		svc:     svc,
		keys:    defaultKeyMap(),
		help:    help.New(),
		meter:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(24), progress.WithoutPercentage()),
		loading: true,
		lastLog: "Loaded.",
	}
}

func (m boardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m boardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{
			hero:   m.svc.Hero(),
			quests: m.svc.Quests(quests.Filter{Status: game.StatusActive}),
			bars:   m.svc.Bars(),
		}
	}
}

func (m boardModel) completeCmd(q game.Quest) tea.Cmd {
	return func() tea.Msg {
		res, err := m.svc.CompleteQuest(m.ctx, q.ID)
		return completedMsg{title: q.Title, res: res, err: err}
	}
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case loadedMsg:
		m.loading = false
		m.hero = msg.hero
		m.quests = msg.quests
		m.bars = msg.bars
		if m.selected >= len(m.quests) {
			m.selected = max(0, len(m.quests)-1)
		}
		return m, nil
	case completedMsg:
		if msg.err != nil {
			m.lastLog = "Complete failed: " + msg.err.Error()
			return m, m.loadCmd()
		}
		m.lastLog = completionSummary(msg.title, msg.res)
		return m, m.loadCmd()
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Refresh):
			m.loading = true
			m.lastLog = fmt.Sprintf("Refreshed at %s.", time.Now().Format("15:04:05"))
			return m, m.loadCmd()
		case key.Matches(msg, m.keys.Up):
			if m.selected > 0 {
				m.selected--
			}
		case key.Matches(msg, m.keys.Down):
			if m.selected < len(m.quests)-1 {
				m.selected++
			}
		case key.Matches(msg, m.keys.Complete):
			if m.selected < 0 || m.selected >= len(m.quests) {
				return m, nil
			}
			q := m.quests[m.selected]
			m.lastLog = fmt.Sprintf("Completing %s…", q.Title)
			return m, m.completeCmd(q)
		}
	}
	return m, nil
}

func completionSummary(title string, res *quests.CompleteResult) string {
	parts := []string{fmt.Sprintf("%s %s: +%d XP +%d gold", ui.IconDone, title, res.XPAwarded, res.GoldAwarded)}
	if res.LeveledUp() {
		parts = append(parts, fmt.Sprintf("%s %d → %d", ui.BadgeLevelUp, res.LevelBefore, res.LevelAfter))
	}
	if res.StreakIncreased() {
		parts = append(parts, fmt.Sprintf("%s %d", ui.IconFire, res.StreakAfter))
	}
	for _, u := range res.BarUpdates {
		parts = append(parts, fmt.Sprintf("%s %+g", u.BarName, u.Change))
		for _, ms := range u.Achieved {
			parts = append(parts, fmt.Sprintf("%s %s", ui.IconTrophy, ms.Title))
		}
	}
	return strings.Join(parts, " | ")
}

func (m boardModel) View() string {
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		ui.Panel.Render(m.renderHero()),
		ui.Panel.Render(m.renderQuests()),
	)
	return strings.Join([]string{
		m.renderHeader(),
		body,
		ui.Panel.Render(m.renderBars()),
		m.lastLog,
		m.help.View(m.keys),
	}, "\n")
}

func (m boardModel) renderHeader() string {
	if m.loading && m.hero.ID == "" {
		return "Questlife — loading…"
	}
	into, span := ledger.LevelProgress(m.hero.XP)
	ratio := 0.0
	if span > 0 {
		ratio = float64(into) / float64(span)
	}
	return fmt.Sprintf("%s  Level %d  %s %s",
		ui.Heading(ui.IconSparkle, m.hero.Name), m.hero.Level, m.meter.ViewAs(ratio), ui.Muted.Render(fmt.Sprintf("%d/%d XP", into, span)))
}

func (m boardModel) renderHero() string {
	u := m.hero
	lines := []string{
		ui.PanelTitle.Render("Hero"),
		vital(ui.IconHeart, "hp", u.HP, u.MaxHP),
		vital(ui.IconBolt, "stamina", u.Stamina, u.MaxStamina),
		vital(ui.IconLeaf, "wellness", u.Wellness, u.MaxWellness),
	}
	if u.MaxMana > 0 {
		lines = append(lines, vital(ui.IconMana, "mana", u.Mana, u.MaxMana))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("%s %s  %s %d", ui.IconGold, ui.Gold.Render(fmt.Sprint(u.Gold)), ui.IconGem, u.Gems),
		fmt.Sprintf("%s %d (best %d)", ui.IconFire, u.CurrentStreak, u.LongestStreak),
	)
	if u.Class != game.ClassNone {
		lines = append(lines, ui.LabelValue("Class", u.Class))
	}
	return strings.Join(lines, "\n")
}

func vital(icon, name string, cur, limit int) string {
	return fmt.Sprintf("%s %s", icon, ui.Meter(float64(cur), float64(limit), 10, ui.Vital(name)))
}

func (m boardModel) renderQuests() string {
	out := []string{ui.PanelTitle.Render("Quests")}
	if m.loading && len(m.quests) == 0 {
		return strings.Join(append(out, "Loading…"), "\n")
	}
	if len(m.quests) == 0 {
		return strings.Join(append(out, ui.Muted.Render("(no active quests)")), "\n")
	}
	now := time.Now()
	for i, q := range m.quests {
		line := fmt.Sprintf("%s %s %s", ui.QuestIcon(q), q.Title, ui.Muted.Render(string(q.Difficulty)))
		if q.Type == game.QuestDaily && q.CompletedOn(now) {
			line = ui.Muted.Render(line + " ✓")
		}
		if i == m.selected {
			line = ui.SelectedRow.Render("> " + line)
		} else {
			line = "  " + line
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func (m boardModel) renderBars() string {
	out := []string{ui.PanelTitle.Render("Progress")}
	if len(m.bars) == 0 {
		return strings.Join(append(out, ui.Muted.Render("(no progress bars)")), "\n")
	}
	for _, b := range m.bars {
		out = append(out, fmt.Sprintf("%s %-16s %s %s", b.Icon, b.Name, m.meter.ViewAs(b.Ratio()),
			ui.Muted.Render(fmt.Sprintf("%g/%g", b.CurrentValue, b.TargetValue))))
	}
	return strings.Join(out, "\n")
}
