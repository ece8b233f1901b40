package browse

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// AllCategories is the picker entry that applies no category filter.
const AllCategories = "All categories"

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

type pickerModel struct {
	options []string
	counts  map[string]int
	cursor  int
	chosen  int // -1 = no choice yet, -2 = quit
}

func newPicker(categories []string, counts map[string]int) pickerModel {
	return pickerModel{
		options: append([]string{AllCategories}, categories...),
		counts:  counts,
		chosen:  -1,
	}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.chosen = -2
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		case "enter":
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	s := pickerTitleStyle.Render("Browse jobs: select a category")
	s += "\n"

	for i, c := range m.options {
		label := c
		if n, ok := m.counts[c]; ok {
			label = fmt.Sprintf("%s (%d)", c, n)
		}
		if i == m.cursor {
			s += pickerSelectedStyle.Render("> "+label) + "\n"
		} else {
			s += pickerItemStyle.Render(label) + "\n"
		}
	}

	s += pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit")
	return s
}

// category maps the chosen entry to a filter value.
func (m pickerModel) category() (string, bool) {
	if m.chosen < 0 {
		return "", false
	}
	if m.chosen == 0 {
		return "", true
	}
	return m.options[m.chosen], true
}

// RunCategoryPicker shows an interactive category selector. counts, keyed by
// category, is shown next to each entry when present. ok is false if the user
// quit; an empty category means no filter.
func RunCategoryPicker(categories []string, counts map[string]int) (category string, ok bool, err error) {
	p := tea.NewProgram(newPicker(categories, counts))
	result, err := p.Run()
	if err != nil {
		return "", false, err
	}
	category, ok = result.(pickerModel).category()
	return category, ok, nil
}
