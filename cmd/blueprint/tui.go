package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	charmlog "github.com/charmbracelet/log"

	"github.com/mkessler/nlhe-blueprint/internal/cfr"
)

// progressProgram drives a bubbletea live-progress display for a training
// run. stdout is taken over by the alt screen, so diagnostic logging during
// the run goes to a sibling file instead of zerolog's console writer,
// following the usual bubbletea convention of a file-backed secondary
// logger (grounded on the teacher's tui.TUIModel, which carries its own
// *log.Logger for the same reason).
type progressProgram struct {
	program *tea.Program
	logger  *charmlog.Logger
	logFile *os.File
	done    chan struct{}
}

func startProgressProgram(totalIterations int64) *progressProgram {
	logFile, err := os.OpenFile("blueprint-tui.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logFile = nil
	}
	var logger *charmlog.Logger
	if logFile != nil {
		logger = charmlog.NewWithOptions(logFile, charmlog.Options{
			ReportTimestamp: true,
			Prefix:          "blueprint",
		})
	}

	model := newProgressModel(totalIterations, logger)
	program := tea.NewProgram(model, tea.WithAltScreen())

	pp := &progressProgram{program: program, logger: logger, logFile: logFile, done: make(chan struct{})}
	go func() {
		defer close(pp.done)
		_, _ = program.Run()
	}()
	return pp
}

func (p *progressProgram) update(pr cfr.Progress) {
	p.program.Send(progressMsg(pr))
}

func (p *progressProgram) stop() {
	p.program.Send(doneMsg{})
	<-p.done
	if p.logFile != nil {
		_ = p.logFile.Close()
	}
}

type progressMsg cfr.Progress

type doneMsg struct{}

type progressModel struct {
	bar             progress.Model
	logger          *charmlog.Logger
	totalIterations int64
	started         time.Time
	latest          cfr.Progress
	finished        bool
}

func newProgressModel(totalIterations int64, logger *charmlog.Logger) progressModel {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 50
	return progressModel{bar: bar, logger: logger, totalIterations: totalIterations, started: time.Now()}
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case progressMsg:
		m.latest = cfr.Progress(msg)
		if m.logger != nil {
			m.logger.Debug("progress", "iteration", m.latest.Iteration, "infosets", m.latest.TableSize)
		}
	case doneMsg:
		m.finished = true
		return m, tea.Quit
	case progress.FrameMsg:
		newModel, cmd := m.bar.Update(msg)
		m.bar = newModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	statStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

func (m progressModel) View() string {
	if m.finished {
		return ""
	}
	ratio := 0.0
	if m.totalIterations > 0 {
		ratio = float64(m.latest.Iteration) / float64(m.totalIterations)
		if ratio > 1 {
			ratio = 1
		}
	}
	elapsed := time.Since(m.started).Round(time.Second)

	body := titleStyle.Render("nlhe-blueprint training") + "\n\n"
	body += m.bar.ViewAs(ratio) + "\n\n"
	body += statStyle.Render(fmt.Sprintf(
		"iteration %d · infosets %d · nodes %d · pruned %d · elapsed %s",
		m.latest.Iteration, m.latest.TableSize, m.latest.Stats.NodesVisited, m.latest.Stats.PrunedNodes, elapsed,
	)) + "\n"
	body += statStyle.Render("ctrl+c to detach (training keeps running)") + "\n"
	return body
}
