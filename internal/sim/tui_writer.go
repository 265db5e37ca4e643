package sim

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"swarmmesh-sim/internal/config"
	"swarmmesh-sim/internal/swarm"
	"swarmmesh-sim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// Controller is the command surface the TUI key bindings drive.
type Controller interface {
	KillMaster() error
	ToggleMission() bool
	TogglePause() bool
	SetFormation(swarm.FormationKind) error
}

// logMsg carries a log line for the viewport.
type logMsg struct{ line string }

// eventMsg carries an election or mission event line.
type eventMsg struct{ line string }

// agentMsg carries the latest sample of one agent.
type agentMsg struct{ telemetry.AgentRow }

// stateMsg carries a swarm state update.
type stateMsg struct{ telemetry.StateRow }

// adminMsg reports admin endpoint status.
type adminMsg struct{ active bool }

type setControllerMsg struct{ c Controller }

// statusMsg reports the outcome of a controller command.
type statusMsg struct{ text string }

const (
	maxLogLines         = 1000
	maxSectionHeightPct = 0.25
)

const (
	bgRed    = "\x1b[41m"
	bgYellow = "\x1b[43m"
	bgGreen  = "\x1b[42m"
)

// TUIWriter renders the swarm using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter. Quitting
// the TUI interrupts the process unless Close was called first.
func NewTUIWriter(cfg *config.Config) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(cfg), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// Write implements TelemetryWriter.
func (w *TUIWriter) Write(row telemetry.AgentRow) error {
	line := fmt.Sprintf("%s %s%s%s %srole=%s%s %stask=%s%s %spos=(%.0f,%.0f)%s %sbatt=%.1f%s %slinks=%d%s %s%s%s",
		stamp(row.Timestamp),
		roleColor(row.Role, row.IsPhone), row.AgentID, colorReset,
		colorBlue, row.Role, colorReset,
		colorYellow, row.Task, colorReset,
		colorGreen, row.X, row.Y, colorReset,
		colorCyan, row.Battery, colorReset,
		colorGray, row.Neighbors, colorReset,
		healthColor(row.Health), row.Health, colorReset)
	if row.InJammingZone {
		line += fmt.Sprintf(" %sjammed%s", colorRed, colorReset)
	}
	w.program.Send(logMsg{line: line})
	w.program.Send(agentMsg{row})
	return nil
}

// WriteBatch outputs multiple agent rows.
func (w *TUIWriter) WriteBatch(rows []telemetry.AgentRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteEvent implements EventWriter.
func (w *TUIWriter) WriteEvent(e telemetry.EventRow) error {
	w.program.Send(eventMsg{line: fmt.Sprintf("%s %s%-17s%s %s",
		stamp(e.Timestamp), eventColor(e.Kind), e.Kind, colorReset, e.Details)})
	return nil
}

// WriteEvents outputs multiple event rows.
func (w *TUIWriter) WriteEvents(rows []telemetry.EventRow) error {
	for _, e := range rows {
		_ = w.WriteEvent(e)
	}
	return nil
}

// WriteState implements StateWriter.
func (w *TUIWriter) WriteState(row telemetry.StateRow) error {
	w.program.Send(stateMsg{StateRow: row})
	return nil
}

// WriteHeartbeat implements HeartbeatWriter.
func (w *TUIWriter) WriteHeartbeat(hb telemetry.HeartbeatRow) error {
	w.program.Send(logMsg{line: fmt.Sprintf("%s %sHEARTBEAT%s master=%s size=%d",
		stamp(hb.Timestamp), colorMagenta, colorReset, hb.MasterID, hb.SwarmSize)})
	return nil
}

// SetAdminStatus updates the admin endpoint indicator.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// SetController registers the simulator the key bindings act on.
func (w *TUIWriter) SetController(c Controller) {
	w.program.Send(setControllerMsg{c: c})
}

// LogWriter returns an io.Writer that shows each written line in the log
// viewport, so a logger can run alongside the TUI without tearing the screen.
func (w *TUIWriter) LogWriter() io.Writer {
	return tuiLog{w}
}

type tuiLog struct{ w *TUIWriter }

func (l tuiLog) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line != "" {
			l.w.program.Send(logMsg{line: line})
		}
	}
	return len(p), nil
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	cfg        *config.Config
	table      table.Model
	vp         viewport.Model
	eventVP    viewport.Model
	logs       []string
	events     []string
	agents     map[string]telemetry.AgentRow
	state      telemetry.StateRow
	ctrl       Controller
	admin      bool
	wrap       bool
	autoscroll bool
	showMap    bool
	help       bool
	height     int
	status     string
}

func newTUIModel(cfg *config.Config) tuiModel {
	cols := []table.Column{
		{Title: "Agent", Width: 10},
		{Title: "Role", Width: 7},
		{Title: "Task", Width: 9},
		{Title: "Battery", Width: 8},
		{Title: "Health", Width: 10},
		{Title: "Links", Width: 6},
		{Title: "Target", Width: 10},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(cfg.DroneCount+2))
	return tuiModel{
		cfg:        cfg,
		table:      t,
		vp:         viewport.New(0, 0),
		eventVP:    viewport.New(0, 0),
		agents:     make(map[string]telemetry.AgentRow),
		autoscroll: true,
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.eventVP.Width = msg.Width
		m.height = msg.Height
		m.updateViewportHeight()
		m.refreshViewport()
		m.refreshEvents()
	case tea.KeyMsg:
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
				m.eventVP.GotoBottom()
			}
			return m, nil
		case "v":
			m.showMap = !m.showMap
			m.updateViewportHeight()
			return m, nil
		case "h", "?":
			m.help = true
			return m, nil
		case "x":
			return m, m.control(func(c Controller) string {
				if err := c.KillMaster(); err != nil {
					return err.Error()
				}
				return "master killed"
			})
		case "m":
			return m, m.control(func(c Controller) string {
				return fmt.Sprintf("mission active=%t", c.ToggleMission())
			})
		case " ", "p":
			return m, m.control(func(c Controller) string {
				return fmt.Sprintf("paused=%t", c.TogglePause())
			})
		case "f":
			next := nextFormation(swarm.FormationKind(m.state.Formation))
			return m, m.control(func(c Controller) string {
				if err := c.SetFormation(next); err != nil {
					return err.Error()
				}
				return "formation " + string(next)
			})
		}
		if !m.autoscroll {
			switch msg.String() {
			case "j", "down":
				m.vp.LineDown(1)
			case "k", "up":
				m.vp.LineUp(1)
			case "pgdown", "ctrl+n":
				m.vp.LineDown(10)
			case "pgup", "ctrl+p":
				m.vp.LineUp(10)
			default:
				var cmd tea.Cmd
				m.vp, cmd = m.vp.Update(msg)
				return m, cmd
			}
		}
		return m, nil
	case logMsg:
		m.logs = appendBounded(m.logs, msg.line)
		m.refreshViewport()
	case eventMsg:
		m.events = appendBounded(m.events, msg.line)
		m.updateViewportHeight()
		m.refreshEvents()
	case agentMsg:
		if m.agents == nil {
			m.agents = make(map[string]telemetry.AgentRow)
		}
		m.agents[msg.AgentID] = msg.AgentRow
		m.table.SetRows(m.agentRows())
	case stateMsg:
		m.state = msg.StateRow
		m.pruneAgents()
	case adminMsg:
		m.admin = msg.active
	case setControllerMsg:
		m.ctrl = msg.c
	case statusMsg:
		m.status = msg.text
	}
	return m, nil
}

// control runs fn against the controller outside the event loop. The
// simulator writes back to this program while holding its lock, so calling
// it from Update would block both sides.
func (m tuiModel) control(fn func(Controller) string) tea.Cmd {
	c := m.ctrl
	if c == nil {
		return nil
	}
	return func() tea.Msg { return statusMsg{text: fn(c)} }
}

func appendBounded(lines []string, line string) []string {
	lines = append(lines, line)
	if len(lines) > maxLogLines {
		lines = lines[len(lines)-maxLogLines:]
	}
	return lines
}

func nextFormation(cur swarm.FormationKind) swarm.FormationKind {
	for i, f := range swarm.Formations {
		if f == cur {
			return swarm.Formations[(i+1)%len(swarm.Formations)]
		}
	}
	return swarm.Formations[0]
}

// pruneAgents drops agents that left the roster, such as a disconnected phone.
func (m *tuiModel) pruneAgents() {
	if m.state.TotalAgents == 0 || len(m.agents) <= m.state.TotalAgents {
		return
	}
	var latest time.Time
	for _, a := range m.agents {
		if a.Timestamp.After(latest) {
			latest = a.Timestamp
		}
	}
	for id, a := range m.agents {
		if a.Timestamp.Before(latest) {
			delete(m.agents, id)
		}
	}
	m.table.SetRows(m.agentRows())
}

func (m tuiModel) agentRows() []table.Row {
	ids := make([]string, 0, len(m.agents))
	for id := range m.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	rows := make([]table.Row, 0, len(ids))
	for _, id := range ids {
		a := m.agents[id]
		rows = append(rows, table.Row{
			a.AgentID, a.Role, a.Task,
			fmt.Sprintf("%.1f%%", a.Battery),
			a.Health,
			fmt.Sprintf("%d", a.Neighbors),
			a.AssignedTargetID,
		})
	}
	return rows
}

func (m *tuiModel) updateViewportHeight() {
	bottomHeight := lipgloss.Height(m.renderBottom())
	maxLines := int(float64(m.height) * maxSectionHeightPct)
	if maxLines < 1 {
		maxLines = 1
	}
	evLines := len(m.events)
	if evLines == 0 {
		evLines = 1
	}
	if evLines > maxLines {
		evLines = maxLines
	}
	m.eventVP.Height = evLines

	h := m.height - lipgloss.Height(m.table.View()) - bottomHeight - m.eventVP.Height - 5
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.vp.GotoBottom()
		m.eventVP.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	lines := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		if m.wrap {
			l = wordwrap.String(l, m.vp.Width)
		}
		lines = append(lines, l)
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshEvents() {
	content := "none"
	if len(m.events) > 0 {
		content = strings.Join(m.events, "\n")
	}
	m.eventVP.SetContent(content)
	if m.autoscroll {
		m.eventVP.GotoBottom()
	}
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.vp.Width)
	body := m.vp.View()
	if m.showMap {
		body = m.renderMap(m.vp.Width, m.vp.Height)
	}
	sections := []string{
		m.table.View(),
		divider,
		body,
		divider,
		"Election Log:",
		m.eventVP.View(),
		divider,
		m.renderBottom(),
	}
	return strings.Join(sections, "\n")
}

func indicator(on bool) string {
	c := lipgloss.Color("9")
	if on {
		c = lipgloss.Color("10")
	}
	return lipgloss.NewStyle().Foreground(c).Render("●")
}

func (m tuiModel) renderBottom() string {
	master := m.state.MasterID
	if master == "" {
		master = "none"
	}
	state := fmt.Sprintf("%sSWARM%s %smaster=%s%s %sformation=%s%s %sactive=%d/%d%s %sbatt=%.1f%s %sjammed=%d%s %stargets=%d%s %selections=%d%s",
		colorBlue, colorReset,
		colorMagenta, master, colorReset,
		colorCyan, m.state.Formation, colorReset,
		colorGreen, m.state.ActiveAgents, m.state.TotalAgents, colorReset,
		colorYellow, m.state.AverageBattery, colorReset,
		colorRed, m.state.JammedAgents, colorReset,
		colorGreen, m.state.TargetsCompleted, colorReset,
		colorGray, m.state.Elections, colorReset)
	line := fmt.Sprintf("%s | Mission %s | Paused %s | Electing %s | Admin %s | Wrap %s | Scroll %s",
		state,
		indicator(m.state.MissionActive), indicator(m.state.Paused), indicator(m.state.ElectionInProgress),
		indicator(m.admin), indicator(m.wrap), indicator(m.autoscroll))
	if m.status != "" {
		line += " | " + m.status
	}
	return line
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q      quit",
		" x      kill master",
		" m      start/stop mission",
		" space  pause/resume",
		" f      cycle formation",
		" v      toggle map view",
		" w      toggle wrap",
		" s      toggle auto-scroll",
		" h/?    toggle this help view",
		"",
		"When auto-scroll is disabled:",
		" j/k or up/down    scroll one line",
		" pgdown/pgup       scroll a page",
	}
	return strings.Join(lines, "\n")
}

func headingIcon(h float64) string {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	switch {
	case h >= 45 && h < 135:
		return ">"
	case h >= 135 && h < 225:
		return "v"
	case h >= 225 && h < 315:
		return "<"
	default:
		return "^"
	}
}

func batteryBG(b float64) string {
	switch {
	case b < 30:
		return bgRed
	case b < 60:
		return bgYellow
	default:
		return bgGreen
	}
}

// renderMap draws the operating area scaled to width x height cells with
// jamming zones, configured targets and the latest agent positions.
func (m tuiModel) renderMap(width, height int) string {
	if width < 2 || height < 2 {
		return "map too small"
	}
	area := m.cfg.Area
	grid := make([][]string, height)
	for i := range grid {
		row := make([]string, width)
		for j := range row {
			row[j] = "."
		}
		grid[i] = row
	}
	cell := func(x, y float64) (int, int, bool) {
		cx := int(x / area.Width * float64(width-1))
		cy := int(y / area.Height * float64(height-1))
		return cx, cy, cx >= 0 && cx < width && cy >= 0 && cy < height
	}
	for _, z := range m.cfg.JammingZones {
		for deg := 0; deg < 360; deg += 10 {
			rad := float64(deg) * math.Pi / 180
			if x, y, ok := cell(z.Center.X+math.Cos(rad)*z.Radius, z.Center.Y+math.Sin(rad)*z.Radius); ok {
				grid[y][x] = fmt.Sprintf("%so%s", colorRed, colorReset)
			}
		}
	}
	for _, t := range m.cfg.Targets {
		if x, y, ok := cell(t.Position.X, t.Position.Y); ok {
			grid[y][x] = fmt.Sprintf("%s◎%s", colorYellow, colorReset)
		}
	}
	for _, a := range m.agents {
		x, y, ok := cell(a.X, a.Y)
		if !ok {
			continue
		}
		icon := headingIcon(a.Heading)
		switch {
		case a.Health == string(swarm.HealthDestroyed):
			icon = "x"
		case a.Role == string(swarm.RoleMaster):
			icon = "M"
		case a.IsPhone:
			icon = "P"
		}
		grid[y][x] = fmt.Sprintf("%s%s%s%s", batteryBG(a.Battery), roleColor(a.Role, a.IsPhone), icon, colorReset)
	}
	var b strings.Builder
	for _, row := range grid {
		b.WriteString(strings.Join(row, ""))
		b.WriteByte('\n')
	}
	b.WriteString(fmt.Sprintf("M=master P=phone x=destroyed %s◎%s=target %so%s=jamming %.0fx%.0f",
		colorYellow, colorReset, colorRed, colorReset, area.Width, area.Height))
	return b.String()
}
