// Package tui is an optional interactive browser over the File Records
// reached by the last Analyze call, styled the way cmd/circular's
// monitor view is (same lipgloss palette, bubbles list component).
package tui

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"circular/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
	unresolved  bool
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type browserModel struct {
	list        list.Model
	fileCount   int
	unresolved  int
}

// Run launches the interactive browser over root's resolved graph,
// blocking until the user quits.
func Run(root *model.FileRecord) error {
	items, fileCount, unresolved := flatten(root)

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Resolved Dependencies"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	m := browserModel{list: l, fileCount: fileCount, unresolved: unresolved}
	_, err := tea.NewProgram(m).Run()
	return err
}

func (m browserModel) Init() tea.Cmd {
	return nil
}

func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m browserModel) View() string {
	var summary string
	if m.unresolved == 0 {
		summary = successStyle.Render("all specifiers resolved")
	} else {
		summary = errorStyle.Render(fmt.Sprintf("%d unresolved", m.unresolved))
	}
	status := statusStyle.Render(fmt.Sprintf("%d files", m.fileCount))
	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Module Graph"), status, summary)
	return docStyle.Render(header + "\n" + m.list.View())
}

func flatten(root *model.FileRecord) ([]list.Item, int, int) {
	seen := map[string]bool{}
	var items []list.Item
	fileCount, unresolved := 0, 0

	var walk func(f *model.FileRecord)
	walk = func(f *model.FileRecord) {
		if f == nil || seen[f.Path] {
			return
		}
		seen[f.Path] = true
		fileCount++

		records, _ := f.Dependencies()
		for _, d := range records {
			desc := d.Specifier
			if d.Error != "" {
				unresolved++
				items = append(items, item{title: filepath.Base(f.Path), desc: fmt.Sprintf("%s -> %s (%s)", desc, "?", d.Error), unresolved: true})
				continue
			}
			if d.Target != nil {
				items = append(items, item{title: filepath.Base(f.Path), desc: fmt.Sprintf("%s -> %s", desc, d.Target.Path)})
				walk(d.Target)
			}
		}
	}
	walk(root)
	return items, fileCount, unresolved
}
