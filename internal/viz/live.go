// Package viz renders finished runs in the terminal: an animated replay
// of trajectory time series with play, scrub, and species controls.
package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/crnsim/internal/crn"
	"github.com/san-kum/crnsim/internal/sim"
)

const (
	plotWidth  = 78
	plotHeight = 14
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model animates one trajectory of a completed simulation.
type Model struct {
	sim        *sim.Simulation
	modelName  string
	trajectory int
	species    int
	playHead   int
	running    bool
}

func NewModel(s *sim.Simulation, modelName string) Model {
	return Model{
		sim:       s,
		modelName: modelName,
		playHead:  1,
		running:   true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.playHead = 1
		case "tab":
			m.species = (m.species + 1) % m.sim.Model.NumSpecies()
		case "t":
			m.trajectory = (m.trajectory + 1) % m.sim.NumberTrajectories
		case "[":
			if m.playHead > 1 {
				m.playHead--
				m.running = false
			}
		case "]":
			if m.playHead < m.sim.NumberTimesteps-1 {
				m.playHead++
				m.running = false
			}
		}
	case TickMsg:
		if m.running && m.playHead < m.sim.NumberTimesteps-1 {
			m.playHead++
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m Model) View() string {
	var s strings.Builder
	sp := m.sim.Model.Species[m.species]

	s.WriteString(headerStyle.Render(strings.ToUpper(m.modelName)) + "\n")

	series := make([]float64, m.playHead+1)
	for k := 0; k <= m.playHead; k++ {
		series[k] = m.sim.Concentrations.At(m.trajectory, k, m.species)
	}
	if len(series) > 1 {
		chart := asciigraph.Plot(series,
			asciigraph.Height(plotHeight),
			asciigraph.Width(plotWidth),
			asciigraph.Caption(fmt.Sprintf("%s, trajectory %d", sp.Name, m.trajectory)),
		)
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	t := m.sim.Timeline[m.playHead]
	mode := crn.Mode(m.sim.Modes.At(m.trajectory, m.playHead, m.species))
	status := "PAUSED"
	if m.running {
		status = "PLAYING"
	}

	s.WriteString(labelStyle.Render("Status") + valueStyle.Render(status) + "\n")
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.3f / %.3f", t, m.sim.EndTime)) + "\n")
	s.WriteString(labelStyle.Render("Population") + valueStyle.Render(fmt.Sprintf("%d", m.sim.Populations.At(m.trajectory, m.playHead, m.species))) + "\n")
	s.WriteString(labelStyle.Render("Partition") + valueStyle.Render(mode.String()) + "\n")

	s.WriteString(helpStyle.Render("SP:Pause R:Restart Tab:Species T:Trajectory [ ]:Scrub Q:Quit"))
	return s.String()
}

// Run animates a finished simulation until the user quits.
func Run(s *sim.Simulation, modelName string) error {
	p := tea.NewProgram(NewModel(s, modelName))
	_, err := p.Run()
	return err
}
