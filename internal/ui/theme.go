package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"questlife/internal/game"
)

// Questlife theme (CLI + TUI).

const (
	IconQuest   = "🗺️"
	IconSparkle = "✨"
	IconPlus    = "➕"
	IconDone    = "✅"
	IconTrophy  = "🏆"
	IconBolt    = "⚡"
	IconInfo    = "ℹ️"
	IconWarn    = "⚠️"
	IconError   = "🧨"
	IconLoop    = "🔁"
	IconScroll  = "📜"
	IconGift    = "🎁"
	IconCalDay  = "📅"
	IconFire    = "🔥"
	IconSkull   = "💀"
	IconHeart   = "❤️"
	IconMana    = "🔮"
	IconGold    = "🪙"
	IconGem     = "💎"
	IconLeaf    = "🌿"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
	cGold    = lipgloss.Color("220") // gold
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)

	Panel       = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
	PanelTitle  = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	SelectedRow = lipgloss.NewStyle().Bold(true).Foreground(cGold).Background(cPrimary)

	BadgeLevelUp = lipgloss.NewStyle().Bold(true).Foreground(cGold).Render("LEVEL UP")
)

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

func StatusText(s game.QuestStatus) string {
	switch s {
	case game.StatusCompleted:
		return Good.Render("completed")
	case game.StatusActive:
		return H2.Render("active")
	case game.StatusArchived:
		return Muted.Render("archived")
	default:
		return Muted.Render(string(s))
	}
}

func QuestIcon(q game.Quest) string {
	switch q.Type {
	case game.QuestDaily:
		return IconCalDay
	case game.QuestHabit:
		if !q.Positive() {
			return IconSkull
		}
		return IconLoop
	case game.QuestReward:
		return IconGift
	default:
		return IconQuest
	}
}

// Meter renders a fixed-width block gauge followed by "cur/limit".
func Meter(cur, limit float64, width int, style lipgloss.Style) string {
	if width <= 0 {
		width = 10
	}
	filled := 0
	if limit > 0 {
		filled = int(cur / limit * float64(width))
	}
	filled = min(width, max(0, filled))
	bar := style.Render(strings.Repeat("█", filled)) + Muted.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %s", bar, Muted.Render(fmt.Sprintf("%g/%g", cur, limit)))
}

// Vital picks the gauge colour for a hero resource.
func Vital(name string) lipgloss.Style {
	switch name {
	case "hp":
		return Bad
	case "mana":
		return H2
	case "stamina":
		return Warn
	default:
		return Good
	}
}

// BarStyle colours a progress bar by its hex colour, falling back to Good.
func BarStyle(b game.ProgressBar) lipgloss.Style {
	if strings.HasPrefix(b.Color, "#") {
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(b.Color))
	}
	return Good
}
