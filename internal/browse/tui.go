// Package browse is the terminal UI for the active job market.
package browse

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobtrack/internal/filter"
	"github.com/amishk599/jobtrack/internal/model"
)

// Lines per job item in the list view (title + subtitle + blank separator).
const jobItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

const (
	paneActive = iota
	paneNew
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39")) // bright blue

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")) // dim gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	jobTitleStyle = lipgloss.NewStyle().
			Bold(true)

	jobSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedJobTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedJobSubtitleStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("252")).
					Background(lipgloss.Color("24"))

	newBadgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(16)

	detailValueStyle = lipgloss.NewStyle()

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	descDividerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	descHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	descBodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

type browseModel struct {
	jobs     []model.Job // everything loaded, newest first
	visible  [2][]model.Job
	category string
	loc      *time.Location

	panes      [2]viewport.Model
	cursors    [2]int
	activePane int
	width      int
	height     int
	ready      bool

	search    textinput.Model
	searching bool

	view            viewState
	detailJob       model.Job
	detailViewport  viewport.Model
	showDescription bool

	opener func(url string)
}

func newBrowseModel(jobs []model.Job, category string, loc *time.Location) browseModel {
	if loc == nil {
		loc = time.Local
	}
	ti := textinput.New()
	ti.Placeholder = "title, company or description"
	ti.Prompt = "/ "
	ti.CharLimit = 80

	m := browseModel{
		jobs:     jobs,
		category: category,
		loc:      loc,
		search:   ti,
		opener:   openURL,
	}
	m.applyFilter()
	return m
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m browseModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.applyFilter()
		m.recalcContent()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.applyFilter()
	m.recalcContent()
	return m, cmd
}

func (m browseModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "/":
		m.searching = true
		return m, m.search.Focus()
	case "tab", "left", "right":
		m.activePane = 1 - m.activePane
		m.recalcContent()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	// Forward other keys (pgup/pgdn/home/end) to the active viewport.
	var cmd tea.Cmd
	m.panes[m.activePane], cmd = m.panes[m.activePane].Update(msg)
	return m, cmd
}

func (m browseModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		if m.detailJob.URL != "" {
			m.opener(m.detailJob.URL)
		}
		return m, nil
	case "r":
		if m.detailJob.Description != "" {
			m.showDescription = !m.showDescription
			m.detailViewport.SetContent(m.renderDetail())
			m.detailViewport.SetYOffset(0)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

// applyFilter recomputes both panes from the search box.
func (m *browseModel) applyFilter() {
	f := filter.ActiveJobs{Search: m.search.Value()}
	m.visible = [2][]model.Job{}
	for _, j := range m.jobs {
		if !f.Match(j) {
			continue
		}
		m.visible[paneActive] = append(m.visible[paneActive], j)
		if j.IsNewToday {
			m.visible[paneNew] = append(m.visible[paneNew], j)
		}
	}
	for p := range m.cursors {
		m.cursors[p] = clamp(m.cursors[p], 0, max(len(m.visible[p])-1, 0))
	}
}

func (m *browseModel) moveCursor(delta int) {
	p := m.activePane
	m.cursors[p] = clamp(m.cursors[p]+delta, 0, max(len(m.visible[p])-1, 0))
}

func (m *browseModel) ensureCursorVisible() {
	vp := &m.panes[m.activePane]
	cursorTop := m.cursors[m.activePane] * jobItemHeight
	cursorBottom := cursorTop + jobItemHeight - 1

	if cursorTop < vp.YOffset {
		vp.SetYOffset(cursorTop)
	} else if cursorBottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(cursorBottom - vp.Height + 1)
	}
}

func (m browseModel) openDetailView() (tea.Model, tea.Cmd) {
	jobs := m.visible[m.activePane]
	if len(jobs) == 0 {
		return m, nil
	}

	m.view = viewDetail
	m.detailJob = jobs[m.cursors[m.activePane]]
	m.showDescription = false
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *browseModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.panes[paneActive] = viewport.New(paneWidth, paneHeight)
		m.panes[paneNew] = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		for p := range m.panes {
			m.panes[p].Width = paneWidth
			m.panes[p].Height = paneHeight
		}
	}

	m.recalcContent()
}

func (m *browseModel) recalcContent() {
	for p := range m.panes {
		m.panes[p].SetContent(renderJobs(m.visible[p], m.cursors[p], m.activePane == p, m.loc))
	}
}

func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m browseModel) viewList() string {
	paneWidth := m.panes[paneActive].Width

	scope := "Active Jobs"
	if m.category != "" {
		scope = m.category
	}
	headers := [2]string{
		fmt.Sprintf(" %s (%d)", scope, len(m.visible[paneActive])),
		fmt.Sprintf(" New Today (%d)", len(m.visible[paneNew])),
	}

	var headerCells, paneCells []string
	for p := range m.panes {
		hs, bs := inactiveHeaderStyle, inactiveBorderStyle
		if p == m.activePane {
			hs, bs = activeHeaderStyle, activeBorderStyle
		}
		if p > 0 {
			headerCells = append(headerCells, " ")
			paneCells = append(paneCells, " ")
		}
		headerCells = append(headerCells, lipgloss.NewStyle().Width(paneWidth+2).Render(hs.Render(headers[p])))
		paneCells = append(paneCells, bs.Width(paneWidth).Render(m.panes[p].View()))
	}
	headerRow := lipgloss.JoinHorizontal(lipgloss.Top, headerCells...)
	panes := lipgloss.JoinHorizontal(lipgloss.Top, paneCells...)

	var statusText string
	switch {
	case m.searching:
		statusText = " " + m.search.View() + "    enter keep  esc clear"
	case m.search.Value() != "":
		statusText = fmt.Sprintf(" %d of %d match %q    / search  ←/→/Tab switch  ↑/↓ cursor  Enter detail  q quit",
			len(m.visible[paneActive]), len(m.jobs), m.search.Value())
	default:
		statusText = fmt.Sprintf(" %d active | %d new today    / search  ←/→/Tab switch  ↑/↓ cursor  Enter detail  q quit",
			len(m.visible[paneActive]), len(m.visible[paneNew]))
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func (m browseModel) viewDetail() string {
	title := detailTitleStyle.Render("Job Details")

	border := activeBorderStyle.Width(m.width - 2)
	content := border.Render(m.detailViewport.View())

	statusText := " o open URL  esc/backspace back  ↑/↓ scroll  q quit"
	if m.detailJob.Description != "" {
		statusText = " o open URL  r desc  esc/backspace back  ↑/↓ scroll  q quit"
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return title + "\n" + content + "\n" + statusBar
}

func (m browseModel) renderDetail() string {
	j := m.detailJob
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	addField("Title", j.Title)
	addField("Company", j.Company)
	addField("Location", j.Location)
	addField("Salary", j.SalaryRange)
	addField("Job Type", j.JobType)
	addField("Category", j.Category)
	addField("Source", j.Source)
	addField("External ID", j.ExternalID)

	b.WriteByte('\n')
	addField("First Seen", fmtDate(j.FirstSeen, m.loc))
	addField("Last Seen", fmtDate(j.LastSeen, m.loc))
	if j.IsNewToday {
		addField("Status", "new today")
	}
	if len(j.Skills) > 0 {
		addField("Skills", strings.Join(j.Skills, ", "))
	}

	b.WriteByte('\n')
	addField("Job URL", j.URL)

	wrapWidth := max(m.width-8, 20)
	if j.Description != "" {
		b.WriteByte('\n')
		if m.showDescription {
			label := "── Job Description "
			fill := strings.Repeat("─", max(wrapWidth-len(label), 3))
			b.WriteString(descDividerStyle.Render(label+fill) + "\n\n")
			b.WriteString(descBodyStyle.Render(wordWrap(j.Description, wrapWidth)) + "\n")
		} else {
			b.WriteString(descHintStyle.Render("  press r to read job description") + "\n")
		}
	}

	return b.String()
}

func renderJobs(jobs []model.Job, cursor int, isActive bool, loc *time.Location) string {
	if len(jobs) == 0 {
		return "  (no jobs)"
	}

	var b strings.Builder
	for i, j := range jobs {
		isSelected := isActive && i == cursor

		titleSt := jobTitleStyle
		subtitleSt := jobSubtitleStyle
		prefix := "  "
		if isSelected {
			titleSt = selectedJobTitleStyle
			subtitleSt = selectedJobSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(j.Title))
		if j.IsNewToday {
			b.WriteString(" " + newBadgeStyle.Render("NEW"))
		}
		b.WriteByte('\n')

		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s · %s", j.Company, j.Location, fmtDate(j.FirstSeen, loc))))
		b.WriteByte('\n')

		if i < len(jobs)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func fmtDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("2006-01-02")
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// Run launches the two-pane browser over jobs, which should already be
// filtered to category. loc is used for displayed dates.
func Run(jobs []model.Job, category string, loc *time.Location) error {
	p := tea.NewProgram(newBrowseModel(jobs, category, loc), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
