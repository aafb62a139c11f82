// Package tui is the interactive menu devup shows when started in a
// terminal with no subcommand. The menu only selects an action; check and
// upgrade flows run on the plain console between menu displays, where
// prompts and subprocess output remain ordinary blocking I/O.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Choice is a menu action for the caller to dispatch on.
type Choice int

const (
	// ChoiceNone - menu dismissed without a selection.
	ChoiceNone Choice = iota
	// ChoiceUpgradeHomebrew - upgrade Homebrew and its packages.
	ChoiceUpgradeHomebrew
	// ChoiceUpgradeConda - upgrade the conda package manager.
	ChoiceUpgradeConda
	// ChoiceUpgradePython - upgrade Python via conda.
	ChoiceUpgradePython
	// ChoiceUpgradeNpm - upgrade npm and its global packages.
	ChoiceUpgradeNpm
	// ChoiceUpgradeAll - run every upgrade in sequence.
	ChoiceUpgradeAll
	// ChoiceCheckHomebrew - show Homebrew status without upgrading.
	ChoiceCheckHomebrew
	// ChoiceCheckConda - show Conda status without upgrading.
	ChoiceCheckConda
	// ChoiceCheckPython - show Python status without upgrading.
	ChoiceCheckPython
	// ChoiceCheckNpm - show npm status without upgrading.
	ChoiceCheckNpm
	// ChoiceCheckAll - show every tool's status without upgrading.
	ChoiceCheckAll
	// ChoiceExit - quit the program.
	ChoiceExit
)

type item struct {
	key    string // digit hotkey
	label  string
	choice Choice
}

// Upgrades on 1-5, checks on 6-0, matching the numbered menu users
// already know.
var items = []item{
	{"1", "Upgrade Homebrew", ChoiceUpgradeHomebrew},
	{"2", "Upgrade Conda", ChoiceUpgradeConda},
	{"3", "Upgrade Python", ChoiceUpgradePython},
	{"4", "Upgrade npm", ChoiceUpgradeNpm},
	{"5", "Upgrade All", ChoiceUpgradeAll},
	{"6", "Check Homebrew", ChoiceCheckHomebrew},
	{"7", "Check Conda", ChoiceCheckConda},
	{"8", "Check Python", ChoiceCheckPython},
	{"9", "Check npm", ChoiceCheckNpm},
	{"0", "Check All (no upgrades)", ChoiceCheckAll},
	{"q", "Exit", ChoiceExit},
}

var (
	stylePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("6")).
			Padding(1, 2)

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("6"))

	styleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("2"))

	styleHint = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

// Menu is the bubbletea model for the main menu.
type Menu struct {
	cursor   int
	selected Choice
}

// New creates a menu with the cursor on the first item.
func New() Menu {
	return Menu{}
}

// Selected returns the choice the menu quit with, or ChoiceNone.
func (m Menu) Selected() Choice {
	return m.selected
}

// Init implements tea.Model.
func (m Menu) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.selected = ChoiceExit
			return m, tea.Quit

		case tea.KeyUp:
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case tea.KeyDown:
			if m.cursor < len(items)-1 {
				m.cursor++
			}
			return m, nil

		case tea.KeyEnter:
			m.selected = items[m.cursor].choice
			return m, tea.Quit

		case tea.KeyRunes:
			switch s := msg.String(); s {
			case "q":
				m.selected = ChoiceExit
				return m, tea.Quit
			case "k":
				if m.cursor > 0 {
					m.cursor--
				}
				return m, nil
			case "j":
				if m.cursor < len(items)-1 {
					m.cursor++
				}
				return m, nil
			default:
				// Digit hotkeys select immediately.
				for i, it := range items {
					if it.key == s {
						m.cursor = i
						m.selected = it.choice
						return m, tea.Quit
					}
				}
			}
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Menu) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("macOS Dev Toolkit Manager"))
	b.WriteString("\n\n")

	for i, it := range items {
		// Blank lines split the upgrade, check, and exit groups.
		if it.key == "6" || it.key == "q" {
			b.WriteString("\n")
		}
		line := fmt.Sprintf("%s. %s", it.key, it.label)
		if i == m.cursor {
			b.WriteString(styleSelected.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styleHint.Render("1-5 upgrade · 6-0 check · j/k move · enter confirm · q quit"))

	return stylePanel.Render(b.String()) + "\n"
}

// Show runs the menu and blocks until the user picks an action. Any way of
// leaving the menu without a pick counts as exit.
func Show() (Choice, error) {
	model, err := tea.NewProgram(New()).Run()
	if err != nil {
		return ChoiceExit, fmt.Errorf("menu: %w", err)
	}
	menu, ok := model.(Menu)
	if !ok || menu.selected == ChoiceNone {
		return ChoiceExit, nil
	}
	return menu.selected, nil
}

// Banner renders the welcome panel shown once before the first menu, with
// the exact artifact paths this session will write to.
func Banner(version, logPath, snapshotPath, dbPath string) string {
	body := fmt.Sprintf(
		"devup %s\n\nLog file:     %s\nSnapshot:     %s\nRun history:  %s\n\nUpgrades ask before anything risky; every run leaves a log and a snapshot.",
		version, logPath, snapshotPath, dbPath)
	return stylePanel.Render(styleTitle.Render("macOS Dev Toolkit Manager")+"\n\n"+body) + "\n"
}
