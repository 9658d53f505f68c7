package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/status"
)

// TUI message types
type StatusMsg struct{ Update status.Update }
type SummaryMsg struct{ Summary status.Summary }
type AudioLevelMsg struct{ Level float64 }
type RecordingTickMsg struct{ Duration float64 }
type DeviceLineMsg struct{ Text string }
type EndpointLineMsg struct{ Text string }
type tickMsg time.Time

var (
	tuiProgram   *tea.Program
	tuiMu        sync.Mutex
	tuiReady     = make(chan struct{})
	tuiReadyOnce sync.Once
)

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// tuiSink adapts the Bubble Tea program to the status.Sink interface the
// session controller reports through.
type tuiSink struct{}

func (tuiSink) SetStatus(u status.Update)   { tuiSend(StatusMsg{Update: u}) }
func (tuiSink) SetSummary(s status.Summary) { tuiSend(SummaryMsg{Summary: s}) }

type tuiModel struct {
	state             status.State
	mainLine          string
	detailLine        string
	summary           string
	summaryVisible    bool
	frame             int
	recordingDuration float64
	audioLevel        float64
	peakLevel         float64
	width, height     int
	deviceLine        string
	endpointLine      string
}

func NewTUIProgram() *tea.Program {
	m := tuiModel{mainLine: "Ready"}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	tuiReadyOnce.Do(func() { close(tuiReady) })
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case StatusMsg:
		prev := m.state
		m.state = msg.Update.State
		m.mainLine = msg.Update.Main
		m.detailLine = msg.Update.Detail
		if m.state == status.StateRecording && prev != status.StateRecording {
			m.recordingDuration = 0
			m.audioLevel = 0
			m.peakLevel = 0
		}
		if m.state != status.StateRecording {
			m.audioLevel = 0
		}

	case SummaryMsg:
		m.summaryVisible = msg.Summary.Visible
		m.summary = msg.Summary.Text

	case AudioLevelMsg:
		if m.state == status.StateRecording {
			m.audioLevel = m.audioLevel*0.6 + msg.Level*0.4
			if msg.Level > m.peakLevel {
				m.peakLevel = msg.Level
			}
		}

	case RecordingTickMsg:
		m.recordingDuration = msg.Duration

	case DeviceLineMsg:
		m.deviceLine = msg.Text

	case EndpointLineMsg:
		m.endpointLine = msg.Text
	}
	return m, nil
}

const statusPanelWidth = 38

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var infoLines []string

	switch m.state {
	case status.StateRecording:
		rec := lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true).
			Render(fmt.Sprintf("● REC %.1fs", m.recordingDuration))
		infoLines = append(infoLines, rec)
		infoLines = append(infoLines, renderLevelMeter(m.audioLevel))
		if m.recordingDuration > 1.0 && m.peakLevel < 0.02 {
			warn := lipgloss.NewStyle().
				Foreground(lipgloss.Color("208")).
				Render("⚠ no audio detected")
			infoLines = append(infoLines, warn)
		}
	case status.StateProcessing:
		spinner := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧"}
		busy := lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Render(spinner[m.frame%len(spinner)] + " WORKING")
		infoLines = append(infoLines, busy)
	default:
		idle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render("○ IDLE")
		infoLines = append(infoLines, idle)
	}

	infoLines = append(infoLines, "")
	mainStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	infoLines = append(infoLines, mainStyle.Render(m.mainLine))
	if m.detailLine != "" {
		detailStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
		infoLines = append(infoLines, detailStyle.Render(m.detailLine))
	}

	infoLines = append(infoLines, "")
	grayStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	if m.deviceLine != "" {
		infoLines = append(infoLines, grayStyle.Render(m.deviceLine))
	}
	if m.endpointLine != "" {
		infoLines = append(infoLines, grayStyle.Render(m.endpointLine))
	}

	infoLines = append(infoLines, "")
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	boldStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	infoLines = append(infoLines, boldStyle.Render("Ctrl+Shift+Space")+helpStyle.Render(" to start/stop"))
	infoLines = append(infoLines, helpStyle.Render("aims "+version))

	summaryWidth := m.width - statusPanelWidth - 1
	if summaryWidth < 20 {
		summaryWidth = 20
	}
	wrapWidth := summaryWidth - 2
	if wrapWidth < 10 {
		wrapWidth = 10
	}

	var summaryContent strings.Builder
	if m.summaryVisible && m.summary != "" {
		title := lipgloss.NewStyle().
			Foreground(lipgloss.Color("246")).
			Render("Meeting summary")
		summaryContent.WriteString(title + "\n\n")

		textStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
		for _, line := range wrapText(m.summary, wrapWidth) {
			summaryContent.WriteString(textStyle.Render(line) + "\n")
		}
	} else {
		placeholder := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render("No summary yet")
		summaryContent.WriteString(placeholder)
	}

	statusPanel := lipgloss.NewStyle().
		Width(statusPanelWidth - 1).
		Height(m.height).
		PaddingLeft(1).
		Render(strings.Join(infoLines, "\n"))

	summaryPanel := lipgloss.NewStyle().
		Width(summaryWidth).
		Height(m.height).
		PaddingLeft(1).
		Render(summaryContent.String())

	return lipgloss.JoinHorizontal(lipgloss.Top, statusPanel, summaryPanel)
}

func renderLevelMeter(level float64) string {
	const cells = 24
	lit := int(level * 4 * cells)
	if lit > cells {
		lit = cells
	}
	var b strings.Builder
	litStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	for i := 0; i < cells; i++ {
		if i < lit {
			b.WriteString(litStyle.Render("▮"))
		} else {
			b.WriteString(dimStyle.Render("▯"))
		}
	}
	return b.String()
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
