package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"shelfwatch/internal/config"
	"shelfwatch/internal/risk"
)

// Adaptive styles so the dashboard stays readable on light and dark
// terminals.
var (
	styleTitle = lipgloss.NewStyle().Bold(true)

	styleHeroAttention = lipgloss.NewStyle().Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "255", Dark: "255"}).
				Background(lipgloss.AdaptiveColor{Light: "160", Dark: "88"}).
				Padding(0, 1)
	styleHeroStable = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "255", Dark: "235"}).
			Background(lipgloss.AdaptiveColor{Light: "28", Dark: "78"}).
			Padding(0, 1)

	styleExpired = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "160", Dark: "203"})
	styleUrgent  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "166", Dark: "214"})
	styleSafe    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "78"})
	styleMuted   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "243"})

	styleOffline = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "255", Dark: "235"}).
			Background(lipgloss.AdaptiveColor{Light: "130", Dark: "172"}).
			Padding(0, 1)

	styleSelected = lipgloss.NewStyle().Reverse(true)
	styleSection  = lipgloss.NewStyle().Bold(true).Underline(true)
)

func (m Model) View() string {
	var b strings.Builder

	header := styleTitle.Render("Shelfwatch")
	if m.offline {
		header += "  " + styleOffline.Render("OFFLINE")
	}
	if m.loading || m.busy {
		header += "  " + m.spin.View()
	}
	b.WriteString(header)
	b.WriteString("\n\n")

	if !m.haveInv && m.loading {
		b.WriteString(styleMuted.Render("First sync in progress…"))
		b.WriteString("\n\n")
	}

	buckets := m.buckets()
	b.WriteString(renderHero(buckets))
	b.WriteString("\n")
	b.WriteString(styleMuted.Render(fmt.Sprintf("%d safe · %d urgent · %d expired",
		len(buckets.Safe), len(buckets.Urgent), len(buckets.Expired))))
	b.WriteString("\n\n")

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderSidebar(),
		"   ",
		m.renderLists(buckets),
	)
	b.WriteString(body)
	b.WriteString("\n")

	switch m.mode {
	case modeAddItem:
		b.WriteString(m.renderAddItem())
	case modeAddCategory:
		b.WriteString("\nNew category: ")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	case modeConfirm:
		if m.confirm != nil {
			b.WriteString("\n")
			b.WriteString(styleHeroAttention.Render(cleanText(m.confirm.prompt) + " y/n"))
			b.WriteString("\n")
		}
	case modeNotice:
		b.WriteString("\n")
		b.WriteString(styleHeroAttention.Render("✗ " + cleanText(m.notice)))
		b.WriteString("\n")
		b.WriteString(styleMuted.Render("press any key to continue"))
		b.WriteString("\n")
	}

	if len(m.log) > 0 {
		b.WriteString("\n")
		b.WriteString(styleSection.Render("Activity"))
		b.WriteString("\n")
		for _, entry := range m.log {
			b.WriteString("· " + cleanText(entry))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(styleMuted.Render(renderHelp(m.cfg.Keys)))
	return b.String()
}

func renderHero(b risk.Buckets) string {
	if b.Attention() {
		n := len(b.Urgent) + len(b.Expired)
		return styleHeroAttention.Render(fmt.Sprintf("⚠ %d item(s) need attention", n))
	}
	return styleHeroStable.Render("✓ Everything is stable")
}

func (m Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(styleSection.Render("Categories"))
	b.WriteString("\n")
	for _, name := range m.filterNames() {
		marker := "  "
		line := fmt.Sprintf("%s %s", m.cfg.Icon(name), cleanText(name))
		if name == m.active {
			marker = "> "
			line = styleSelected.Render(line)
		}
		b.WriteString(marker + line + "\n")
	}
	return b.String()
}

func (m Model) renderLists(buckets risk.Buckets) string {
	var b strings.Builder

	attention := append(append([]risk.ViewModel{}, buckets.Expired...), buckets.Urgent...)

	b.WriteString(styleSection.Render("Needs attention"))
	b.WriteString("\n")
	if len(attention) == 0 {
		b.WriteString(styleMuted.Render("(nothing)"))
		b.WriteString("\n")
	}
	for i, vm := range attention {
		b.WriteString(m.renderRow(vm, i == m.cursor))
	}

	b.WriteString("\n")
	b.WriteString(styleSection.Render("Stable"))
	b.WriteString("\n")
	if len(buckets.Safe) == 0 {
		b.WriteString(styleMuted.Render("(nothing)"))
		b.WriteString("\n")
	}
	for i, vm := range buckets.Safe {
		b.WriteString(m.renderRow(vm, len(attention)+i == m.cursor))
	}
	return b.String()
}

func (m Model) renderRow(vm risk.ViewModel, selected bool) string {
	cursor := " "
	if selected {
		cursor = ">"
	}

	var badge string
	switch vm.Status {
	case risk.StatusExpired:
		badge = styleExpired.Render("[" + vm.Label + " — DO NOT USE]")
	case risk.StatusUrgent:
		badge = styleUrgent.Render("[" + vm.Label + "]")
	default:
		badge = styleSafe.Render("[" + vm.Label + "]")
	}

	line := fmt.Sprintf("%s %-24s %s %s %s",
		cursor,
		cleanText(vm.Name),
		badge,
		styleMuted.Render(vm.FormattedDate),
		styleMuted.Render(cleanText(vm.Category)))
	return line + "\n"
}

func (m Model) renderAddItem() string {
	if m.add == nil {
		return ""
	}
	fields := addItemFields()
	var b strings.Builder
	b.WriteString("\nNew item\n")
	for i, name := range fields {
		prefix := " "
		if i == m.add.index {
			prefix = ">"
		}
		val := m.add.value(i)
		if i == m.add.index {
			val = m.input.View()
		} else if strings.TrimSpace(val) == "" {
			val = styleMuted.Render("(empty)")
		}
		b.WriteString(fmt.Sprintf("%s %-26s : %s\n", prefix, name, val))
	}
	return b.String()
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move · %s/%s filter · %s add · %s delete · %s new category · %s delete category · %s refresh · %s export · %s quit",
		k.Up, k.Down, k.NextFilter, k.PrevFilter, k.AddItem, k.DeleteItem,
		k.AddCategory, k.DeleteCategory, k.Refresh, k.Export, k.Quit)
}

// cleanText strips terminal escape sequences from untrusted strings before
// they hit the screen.
func cleanText(s string) string {
	return ansi.Strip(s)
}
