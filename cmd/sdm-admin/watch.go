// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atomist-sdm/sdmcore/lib/bus"
	"github.com/atomist-sdm/sdmcore/lib/chatadmin"
	"github.com/atomist-sdm/sdmcore/lib/ref"
	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const watchPollInterval = 2 * time.Second

// watchRenderer forces an ANSI256 color profile rather than relying on
// lipgloss's auto-detection, the same call lib/ticketui's terminal
// markdown renderer makes: lipgloss.Renderer.ColorProfile() re-detects
// from the environment unless SetColorProfile is called explicitly,
// which under-colors output when $TERM is set conservatively (e.g.
// under tmux or a restrictive SSH session) even though the watch
// command has already confirmed stdout is a real terminal.
var watchRenderer = func() *lipgloss.Renderer {
	r := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.ANSI256))
	r.SetColorProfile(termenv.ANSI256)
	return r
}()

func watchCommand() *Command {
	return &Command{
		Name:    "watch",
		Summary: "Watch pending goal sets live",
		Flags:   newConfigFlags,
		Run: func(args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("sdm-admin watch: stdout is not a terminal, use sdm-admin list instead")
			}

			cfg, err := loadConfig(configPathFlag)
			if err != nil {
				return err
			}
			self, err := selfFromConfig(cfg)
			if err != nil {
				return err
			}
			eventBus, err := buildEventBus(cfg)
			if err != nil {
				return err
			}

			program := tea.NewProgram(newWatchModel(eventBus, self), tea.WithAltScreen())
			_, err = program.Run()
			return err
		},
	}
}

type goalSetsLoadedMsg struct {
	sets []goal.Set
	err  error
}

type tickMsg struct{}

// watchModel polls CommandListGoalSets on an interval and renders the
// result, reusing renderGoalSets so the live view and the one-shot
// list command never drift in format. Pressing "/" opens a substring
// filter over the polled sets, in the same Active/Input/HandleRune
// style lib/ticketui.SearchModel uses for its in-body search bar.
type watchModel struct {
	eventBus bus.EventBus
	self     ref.RegistrationName

	spinner spinner.Model
	loading bool
	sets    []goal.Set
	errMsg  string

	filterActive bool
	filterInput  string

	width  int
	height int
}

func newWatchModel(eventBus bus.EventBus, self ref.RegistrationName) watchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = watchRenderer.NewStyle().Foreground(lipgloss.Color("6"))
	return watchModel{
		eventBus: eventBus,
		self:     self,
		spinner:  s,
		loading:  true,
		width:    80,
		height:   24,
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.poll())
}

func (m watchModel) poll() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		result, err := chatadmin.Execute(ctx, m.eventBus, chatadmin.Command{
			Name: chatadmin.CommandListGoalSets,
			Self: m.self,
		})
		if err != nil {
			return goalSetsLoadedMsg{err: err}
		}
		if result.Status == "error" {
			return goalSetsLoadedMsg{err: fmt.Errorf("%s", result.Error)}
		}
		return goalSetsLoadedMsg{sets: result.GoalSets}
	}
}

func scheduleTick() tea.Cmd {
	return tea.Tick(watchPollInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.filterActive {
			switch msg.Type {
			case tea.KeyEsc:
				m.filterActive = false
				m.filterInput = ""
			case tea.KeyEnter:
				m.filterActive = false
			case tea.KeyBackspace:
				if len(m.filterInput) > 0 {
					runes := []rune(m.filterInput)
					m.filterInput = string(runes[:len(runes)-1])
				}
			case tea.KeyRunes:
				m.filterInput += string(msg.Runes)
			}
			return m, nil
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.filterInput != "" {
				m.filterInput = ""
				return m, nil
			}
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, m.poll()
		case "/":
			m.filterActive = true
			return m, nil
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		m.loading = true
		return m, tea.Batch(m.poll(), scheduleTick())

	case goalSetsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		} else {
			m.errMsg = ""
			m.sets = msg.sets
		}
		if len(m.sets) == 0 && m.errMsg == "" {
			return m, scheduleTick()
		}
		return m, scheduleTick()
	}
	return m, nil
}

var watchHeaderStyle = watchRenderer.NewStyle().Bold(true).Padding(0, 1)

func (m watchModel) View() string {
	header := watchHeaderStyle.Render("sdm-admin watch") + "  (q to quit, r to refresh, / to filter)"
	if m.loading {
		header += "  " + m.spinner.View()
	}
	if m.filterActive || m.filterInput != "" {
		header += "\n" + dimStyle.Render("filter: "+m.filterInput+"█")
	}
	if m.errMsg != "" {
		return header + "\n\n" + watchRenderer.NewStyle().Foreground(lipgloss.Color("1")).Render("error: "+m.errMsg) + "\n"
	}
	return header + "\n\n" + renderGoalSets(filterGoalSets(m.sets, m.filterInput))
}

// filterGoalSets keeps only the goal sets whose repo, branch, or any
// goal's name contains query (case-insensitive substring match). An
// empty query returns sets unchanged. This is a plain substring
// filter rather than a fuzzy picker: lib/ticketui/fuzzy.go's fuzzy
// match delegates to a lib/tui helper whose implementation is not
// available in this repository's reference material, so there is no
// library-mode junegunn/fzf call to reproduce here; this filter
// follows lib/ticketui.SearchModel's plain substring approach
// instead of an unverifiable dependency.
func filterGoalSets(sets []goal.Set, query string) []goal.Set {
	if query == "" {
		return sets
	}
	query = strings.ToLower(query)
	filtered := make([]goal.Set, 0, len(sets))
	for _, set := range sets {
		if strings.Contains(strings.ToLower(set.Repo.String()), query) ||
			strings.Contains(strings.ToLower(set.Branch.String()), query) {
			filtered = append(filtered, set)
			continue
		}
		for _, g := range set.Goals {
			if strings.Contains(strings.ToLower(g.UniqueName.String()), query) {
				filtered = append(filtered, set)
				break
			}
		}
	}
	return filtered
}
