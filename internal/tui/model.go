package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vajra-scan/vajra/internal/model"
)

const maxRows = 10000

// Filter modes for the row table.
const (
	FilterAll  = 0
	FilterOpen = 1
)

type resultRow struct {
	result model.ProbeResult
	seq    int
}

// Model is the bubbletea model driving the live scan view. It owns no
// scanning logic: the CLI polls the orchestrator and pushes ResultMsg/StatsMsg
// into the running tea.Program as probes complete.
type Model struct {
	Target   string
	PortSpec string
	ScanMode string

	rows    map[string]*resultRow
	order   []string
	nextSeq int

	snapshot ProgressSnapshot
	started  time.Time

	cursor     int
	offset     int
	follow     bool
	filterMode int
	filtered   []string

	width, height int
	quitting      bool
	done          bool
}

// New returns a Model ready for tea.NewProgram.
func New(target, portSpec, scanMode string) Model {
	return Model{
		Target:   target,
		PortSpec: portSpec,
		ScanMode: scanMode,
		rows:     make(map[string]*resultRow, 1024),
		order:    make([]string, 0, 1024),
		follow:   true,
		started:  time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case ResultMsg:
		m.addResult(msg.Result)
		m.rebuildFiltered()
		if m.follow {
			m.cursorToEnd()
		}

	case StatsMsg:
		m.snapshot = msg.Snapshot

	case DoneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) addResult(r model.ProbeResult) {
	key := r.Target.Key()
	if _, exists := m.rows[key]; !exists {
		if len(m.order) >= maxRows {
			oldest := m.order[0]
			m.order = m.order[1:]
			delete(m.rows, oldest)
		}
		m.order = append(m.order, key)
	}
	m.rows[key] = &resultRow{result: r, seq: m.nextSeq}
	m.nextSeq++
}

func (m *Model) rebuildFiltered() {
	m.filtered = m.filtered[:0]
	for _, key := range m.order {
		row := m.rows[key]
		if m.filterMode == FilterOpen && !row.result.IsOpen() {
			continue
		}
		m.filtered = append(m.filtered, key)
	}
	sort.Slice(m.filtered, func(i, j int) bool {
		return m.rows[m.filtered[i]].seq < m.rows[m.filtered[j]].seq
	})
	if m.cursor >= len(m.filtered) {
		m.cursor = len(m.filtered) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) cursorToEnd() {
	m.cursor = len(m.filtered) - 1
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureVisible()
}

func (m *Model) visibleRows() int {
	// header (3 lines) + column header (1) + footer (2)
	vis := m.height - 6
	if vis < 1 {
		vis = 10
	}
	return vis
}

func (m *Model) ensureVisible() {
	vis := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+vis {
		m.offset = m.cursor - vis + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	case "1":
		m.filterMode = FilterAll
		m.rebuildFiltered()
		return m, nil
	case "2":
		m.filterMode = FilterOpen
		m.rebuildFiltered()
		return m, nil
	case "j", "down":
		m.follow = false
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
		m.ensureVisible()
	case "k", "up":
		m.follow = false
		if m.cursor > 0 {
			m.cursor--
		}
		m.ensureVisible()
	case "g", "home":
		m.follow = false
		m.cursor = 0
		m.offset = 0
	case "G", "end":
		m.follow = true
		m.cursorToEnd()
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	elapsed := time.Since(m.started).Round(time.Second)
	fmt.Fprintf(&b, "%s  %s  ports=%s  mode=%s  %s\n",
		styleHeader.Render("vajra"), styleDim.Render(m.Target), m.PortSpec, m.ScanMode, styleDim.Render(elapsed.String()))

	b.WriteString(m.progressBar())
	b.WriteString("\n")

	b.WriteString(m.filterTabs())
	b.WriteString("\n")

	b.WriteString(styleColHeader.Render(fmt.Sprintf("%-20s %-7s %-10s %-10s %s", "TARGET", "STATE", "SERVICE", "RTT", "BANNER")))
	b.WriteString("\n")

	vis := m.visibleRows()
	end := m.offset + vis
	if end > len(m.filtered) {
		end = len(m.filtered)
	}
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(i))
		b.WriteString("\n")
	}

	b.WriteString(styleHelp.Render("j/k move  1/2 filter (all/open)  g/G top/bottom  q quit"))
	return b.String()
}

func (m Model) progressBar() string {
	const width = 40
	frac := m.snapshot.fraction()
	filled := int(frac * float64(width))
	bar := styleBar.Render(strings.Repeat("█", filled)) + styleBarTrail.Render(strings.Repeat("░", width-filled))
	pct := frac * 100
	return fmt.Sprintf("%s %5.1f%%  %d/%d  failed=%d",
		bar, pct, m.snapshot.Completed, m.snapshot.Total, m.snapshot.Failed)
}

func (m Model) filterTabs() string {
	tabs := []struct {
		label string
		mode  int
	}{
		{"all", FilterAll},
		{"open", FilterOpen},
	}
	parts := make([]string, len(tabs))
	for i, t := range tabs {
		if t.mode == m.filterMode {
			parts[i] = styleTabActive.Render(" " + t.label + " ")
		} else {
			parts[i] = styleTabInactive.Render(" " + t.label + " ")
		}
	}
	return strings.Join(parts, "")
}

func (m Model) renderRow(i int) string {
	row := m.rows[m.filtered[i]]
	r := row.result

	line := fmt.Sprintf("%-20s %-7s %-10s %-10s %s",
		fmt.Sprintf("%s:%d", r.Target.IP, r.Target.Port),
		r.State.String(),
		serviceLabel(r),
		r.RTT.Round(time.Millisecond),
		strings.TrimSpace(r.Banner))

	style := stateStyle(r.State)
	if i == m.cursor {
		return styleCursor.Render(line)
	}
	return style.Render(line)
}

func serviceLabel(r model.ProbeResult) string {
	if r.Service == nil {
		return ""
	}
	if r.Service.Product != "" {
		return r.Service.Service + "/" + r.Service.Product
	}
	return r.Service.Service
}

func stateStyle(s model.PortState) lipgloss.Style {
	switch s {
	case model.Open:
		return styleOpen
	case model.Closed:
		return styleClosed
	default:
		return styleFiltered
	}
}
