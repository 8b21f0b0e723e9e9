package browse

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/graftdb/graft"
	"github.com/graftdb/graft/local"
)

var detailTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
var detailKeyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
var detailBoxStyle = lipgloss.NewStyle().Padding(1, 2)

type nodeItem struct {
	node graft.Node
}

func (i nodeItem) Title() string {
	labels := strings.Join(i.node.Labels, ":")
	if labels == "" {
		labels = "(no labels)"
	}
	return fmt.Sprintf("#%d %s", i.node.ID, labels)
}

func (i nodeItem) Description() string {
	if len(i.node.Properties) == 0 {
		return "no properties"
	}

	keys := make([]string, 0, len(i.node.Properties))
	for k := range i.node.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, i.node.Properties[k]))
	}
	return strings.Join(parts, " ")
}

func (i nodeItem) FilterValue() string {
	return i.Title() + " " + i.Description()
}

type changesMsg graft.ObservedChanges

type model struct {
	db      *local.DB
	list    list.Model
	changes <-chan graft.ObservedChanges

	selected      *graft.Node
	relationships []graft.Relationship

	err      error
	quitting bool
}

func waitForChanges(ch <-chan graft.ObservedChanges) tea.Cmd {
	return func() tea.Msg {
		changes, ok := <-ch
		if !ok {
			return nil
		}
		return changesMsg(changes)
	}
}

func loadItems(db *local.DB) ([]list.Item, error) {
	items := []list.Item{}

	err := db.Read(func(tx graft.ReadTx) error {
		it, err := tx.Nodes()
		if err != nil {
			return err
		}

		for ; !it.IsDone(); it.Next() {
			n, err := it.GetNode()
			if err != nil {
				return err
			}
			items = append(items, nodeItem{node: n})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

func loadRelationships(db *local.DB, id graft.NodeID) ([]graft.Relationship, error) {
	rels := []graft.Relationship{}

	err := db.Read(func(tx graft.ReadTx) error {
		it, err := tx.Relationships()
		if err != nil {
			return err
		}

		for ; !it.IsDone(); it.Next() {
			r, err := it.GetRelationship()
			if err != nil {
				return err
			}
			if r.From == id || r.To == id {
				rels = append(rels, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rels, nil
}

func (m model) Init() tea.Cmd {
	return waitForChanges(m.changes)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "esc":
			if m.selected != nil {
				m.selected = nil
				m.relationships = nil
				return m, nil
			}
		case "enter":
			if m.selected == nil {
				it, isNode := m.list.SelectedItem().(nodeItem)
				if isNode {
					n := it.node
					m.selected = &n
					m.relationships, m.err = loadRelationships(m.db, n.ID)
				}
				return m, nil
			}
		}

	case changesMsg:
		items, err := loadItems(m.db)
		if err != nil {
			m.err = err
			return m, waitForChanges(m.changes)
		}
		return m, tea.Batch(m.list.SetItems(items), waitForChanges(m.changes))
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	if m.err != nil {
		return detailBoxStyle.Render("error: " + m.err.Error())
	}

	if m.selected != nil {
		return m.detailView()
	}

	return m.list.View()
}

func (m model) detailView() string {
	n := m.selected

	s := strings.Builder{}
	s.WriteString(detailTitleStyle.Render(fmt.Sprintf("Node #%d", n.ID)))
	s.WriteString("\n\n")

	s.WriteString(detailKeyStyle.Render("labels: "))
	s.WriteString(strings.Join(n.Labels, ", "))
	s.WriteString("\n")

	keys := make([]string, 0, len(n.Properties))
	for k := range n.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		s.WriteString(detailKeyStyle.Render(k + ": "))
		s.WriteString(fmt.Sprintf("%v", n.Properties[k]))
		s.WriteString("\n")
	}

	if len(m.relationships) > 0 {
		s.WriteString("\n")
		s.WriteString(detailTitleStyle.Render("Relationships"))
		s.WriteString("\n")
		for _, r := range m.relationships {
			s.WriteString(fmt.Sprintf("#%d %s %d -> %d\n", r.ID, r.Type, r.From, r.To))
		}
	}

	s.WriteString("\n")
	s.WriteString(detailKeyStyle.Render("esc to go back, q to quit"))

	return detailBoxStyle.Render(s.String())
}

func run(db *local.DB) error {
	items, err := loadItems(db)
	if err != nil {
		return fmt.Errorf("while loading nodes: %w", err)
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = fmt.Sprintf("graft: %s", db.Name())

	changes, cancel := db.Observe()
	defer cancel()

	m := model{
		db:      db,
		list:    l,
		changes: changes,
	}

	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("while running browser: %w", err)
	}

	return nil
}
