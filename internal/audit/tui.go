package audit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/autojob/internal/filter"
	"github.com/amishk599/autojob/internal/model"
)

// Lines per record item in the list view (title + subtitle + blank separator).
const recordItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
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

	recordTitleStyle = lipgloss.NewStyle().
				Bold(true)

	recordSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedRecordTitleStyle = lipgloss.NewStyle().
					Bold(true).
					Foreground(lipgloss.Color("15")).
					Background(lipgloss.Color("24"))

	selectedRecordSubtitleStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("252")).
					Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(12)

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

type auditModel struct {
	query          string
	allRecords     []model.JobRecord
	matchedRecords []model.JobRecord
	leftViewport   viewport.Model
	rightViewport  viewport.Model
	activePane     int // 0=left, 1=right
	leftCursor     int
	rightCursor    int
	width          int
	height         int
	ready          bool

	view           viewState
	detailRecord   model.JobRecord
	detailViewport viewport.Model
	showContent    bool

	wantQuit bool
}

func (m auditModel) Init() tea.Cmd {
	return nil
}

func (m auditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
		return m.updateListView(msg)
	}

	return m, nil
}

func (m auditModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
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
	if m.activePane == 0 {
		m.leftViewport, cmd = m.leftViewport.Update(msg)
	} else {
		m.rightViewport, cmd = m.rightViewport.Update(msg)
	}
	return m, cmd
}

func (m auditModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "r":
		if m.detailRecord.Content != "" {
			m.showContent = !m.showContent
			m.detailViewport.SetContent(m.renderDetail())
			m.detailViewport.SetYOffset(0)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m *auditModel) moveCursor(delta int) {
	if m.activePane == 0 {
		m.leftCursor = clamp(m.leftCursor+delta, 0, max(len(m.allRecords)-1, 0))
	} else {
		m.rightCursor = clamp(m.rightCursor+delta, 0, max(len(m.matchedRecords)-1, 0))
	}
}

func (m *auditModel) ensureCursorVisible() {
	var vp *viewport.Model
	var cursor int
	if m.activePane == 0 {
		vp = &m.leftViewport
		cursor = m.leftCursor
	} else {
		vp = &m.rightViewport
		cursor = m.rightCursor
	}

	cursorTop := cursor * recordItemHeight
	cursorBottom := cursorTop + recordItemHeight - 1

	if cursorTop < vp.YOffset {
		vp.SetYOffset(cursorTop)
	} else if cursorBottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(cursorBottom - vp.Height + 1)
	}
}

func (m auditModel) openDetailView() (tea.Model, tea.Cmd) {
	records := m.activeRecords()
	if len(records) == 0 {
		return m, nil
	}

	m.view = viewDetail
	m.detailRecord = records[m.activeCursor()]
	m.showContent = false
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *auditModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.leftViewport = viewport.New(paneWidth, paneHeight)
		m.rightViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.leftViewport.Width = paneWidth
		m.leftViewport.Height = paneHeight
		m.rightViewport.Width = paneWidth
		m.rightViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *auditModel) recalcContent() {
	m.leftViewport.SetContent(renderRecords(m.allRecords, m.leftCursor, m.activePane == 0))
	m.rightViewport.SetContent(renderRecords(m.matchedRecords, m.rightCursor, m.activePane == 1))
}

func (m auditModel) activeRecords() []model.JobRecord {
	if m.activePane == 0 {
		return m.allRecords
	}
	return m.matchedRecords
}

func (m auditModel) activeCursor() int {
	if m.activePane == 0 {
		return m.leftCursor
	}
	return m.rightCursor
}

func (m auditModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.view == viewDetail {
		return m.viewDetail()
	}

	return m.viewList()
}

func (m auditModel) viewList() string {
	paneWidth := m.leftViewport.Width

	leftHeader := fmt.Sprintf(" All Records (%d)", len(m.allRecords))
	rightHeader := fmt.Sprintf(" Matching %q (%d)", m.query, len(m.matchedRecords))

	var leftHeaderRendered, rightHeaderRendered string
	var leftBorder, rightBorder lipgloss.Style

	if m.activePane == 0 {
		leftHeaderRendered = activeHeaderStyle.Render(leftHeader)
		rightHeaderRendered = inactiveHeaderStyle.Render(rightHeader)
		leftBorder = activeBorderStyle.Width(paneWidth)
		rightBorder = inactiveBorderStyle.Width(paneWidth)
	} else {
		leftHeaderRendered = inactiveHeaderStyle.Render(leftHeader)
		rightHeaderRendered = activeHeaderStyle.Render(rightHeader)
		leftBorder = inactiveBorderStyle.Width(paneWidth)
		rightBorder = activeBorderStyle.Width(paneWidth)
	}

	leftPane := leftBorder.Render(m.leftViewport.View())
	rightPane := rightBorder.Render(m.rightViewport.View())

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeaderRendered),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeaderRendered),
	)

	panes := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, " ", rightPane)

	statusText := fmt.Sprintf(" %d total | %d matched | %d not matched    ←/→/Tab switch  ↑/↓ cursor  Enter detail  Esc back  q quit",
		len(m.allRecords), len(m.matchedRecords), len(m.allRecords)-len(m.matchedRecords))
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func (m auditModel) viewDetail() string {
	title := detailTitleStyle.Render("Job Description")

	border := activeBorderStyle.Width(m.width - 2)
	content := border.Render(m.detailViewport.View())

	statusText := " esc/backspace back  ↑/↓ scroll  q quit"
	if m.detailRecord.Content != "" {
		statusText = " r content  esc/backspace back  ↑/↓ scroll  q quit"
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return title + "\n" + content + "\n" + statusBar
}

func (m auditModel) renderDetail() string {
	r := m.detailRecord
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	addField("Company", r.Company)
	addField("Role", r.Role)
	addField("Location", r.Location)
	addField("Salary", r.Salary)
	addField("Cached", r.Date)
	if len(r.Tags) > 0 {
		addField("Tags", strings.Join(r.Tags, ", "))
	}

	if r.Content == "" {
		b.WriteByte('\n')
		b.WriteString(descHintStyle.Render("  no content cached for this record") + "\n")
		return b.String()
	}

	wrapWidth := max(m.width-8, 20)
	b.WriteByte('\n')
	if m.showContent {
		label := "── Job Description "
		fill := strings.Repeat("─", max(wrapWidth-len(label), 3))
		b.WriteString(descDividerStyle.Render(label+fill) + "\n\n")
		b.WriteString(descBodyStyle.Render(wordWrap(r.Content, wrapWidth)) + "\n")
	} else {
		b.WriteString(descHintStyle.Render("  press r to read job description") + "\n")
	}

	return b.String()
}

func renderRecords(records []model.JobRecord, cursor int, isActive bool) string {
	if len(records) == 0 {
		return "  (no records)"
	}

	var b strings.Builder
	for i, r := range records {
		isSelected := isActive && i == cursor

		titleSt := recordTitleStyle
		subtitleSt := recordSubtitleStyle
		prefix := "  "
		if isSelected {
			titleSt = selectedRecordTitleStyle
			subtitleSt = selectedRecordSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(fmt.Sprintf("%s · %s", r.Company, r.Role)))
		b.WriteByte('\n')

		location := r.Location
		if location == "" {
			location = "n/a"
		}
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s", location, r.Date)))
		b.WriteByte('\n')

		if i < len(records)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// splitRecords returns the records matching tags. A blank query matches
// every record.
func splitRecords(all []model.JobRecord, tags string) []model.JobRecord {
	f := filter.NewTagFilter(tags)
	if f.Empty() {
		return append([]model.JobRecord(nil), all...)
	}
	var matched []model.JobRecord
	for _, r := range all {
		if f.Match(r) {
			matched = append(matched, r)
		}
	}
	return matched
}

// sortRecordsByDate orders newest first, keeping insertion order within a day.
func sortRecordsByDate(records []model.JobRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date > records[j].Date
	})
}

func wordWrap(text string, width int) string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if lipgloss.Width(line)+1+lipgloss.Width(w) <= width {
				line += " " + w
			} else {
				out = append(out, line)
				line = w
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
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

// RunAuditTUI launches the split-pane browser: every cached record on the
// left, those matching tags on the right.
// Returns wantQuit=true if the user pressed q/ctrl+c, false if they pressed esc to return to the picker.
func RunAuditTUI(all []model.JobRecord, tags string) (bool, error) {
	all = append([]model.JobRecord(nil), all...)
	sortRecordsByDate(all)
	matched := splitRecords(all, tags)

	m := auditModel{
		query:          tags,
		allRecords:     all,
		matchedRecords: matched,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	final := result.(auditModel)
	return final.wantQuit, nil
}
