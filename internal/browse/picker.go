package browse

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmallari/jobmill/internal/model"
)

// ErrPickerQuit reports that the user left the picker without choosing.
var ErrPickerQuit = errors.New("picker quit")

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

// PickAll is returned by RunCompanyPicker when the user selects the
// "All companies" entry.
const PickAll = -1

type pickerModel struct {
	companies []model.Company
	cursor    int
	chosen    int // -1 = no choice yet (quit), >= 0 index into rows
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

// rows = 1 ("All companies") + len(companies)
func (m pickerModel) rowCount() int {
	return len(m.companies) + 1
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.chosen = -1
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < m.rowCount()-1 {
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
	s := pickerTitleStyle.Render("Browse Jobs — Select a company")
	s += "\n"

	render := func(i int, label string) string {
		if i == m.cursor {
			return pickerSelectedStyle.Render("> "+label) + "\n"
		}
		return pickerItemStyle.Render(label) + "\n"
	}

	s += render(0, "All companies")
	for i, c := range m.companies {
		s += render(i+1, fmt.Sprintf("%s (%d jobs)", c.Name, c.JobCount))
	}

	s += pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit")
	return s
}

// RunCompanyPicker shows an interactive company selector. It returns the index
// of the chosen company, PickAll for the all-companies entry, or an error of
// ErrPickerQuit when the user quit.
func RunCompanyPicker(companies []model.Company) (int, error) {
	m := pickerModel{
		companies: companies,
		chosen:    -1,
	}

	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return -1, err
	}

	final := result.(pickerModel)
	if final.chosen == -1 {
		return -1, ErrPickerQuit
	}
	if final.chosen == 0 {
		return PickAll, nil
	}
	return final.chosen - 1, nil
}
