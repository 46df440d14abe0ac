package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/sharedref"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	handleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	expiredStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const maxEventLines = 8

type interactiveModel struct {
	input   textinput.Model
	strongs map[string]sharedref.Strong[box]
	weaks   map[string]sharedref.Weak[box]
	events  []string
	lastErr string
}

// OnHandleEvent records lifecycle events for the event pane. Commands run
// on the TUI goroutine, so events arrive synchronously during Update.
func (m *interactiveModel) OnHandleEvent(e sharedref.Event) {
	m.events = append(m.events, fmt.Sprintf("block %d: %s", e.Block, e.Type))
	if len(m.events) > maxEventLines {
		m.events = m.events[len(m.events)-maxEventLines:]
	}
}

func newInteractiveModel() *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "make a 42"
	ti.Prompt = "> "
	ti.Width = 48
	ti.Focus()

	return &interactiveModel{
		input:   ti,
		strongs: map[string]sharedref.Strong[box]{},
		weaks:   map[string]sharedref.Weak[box]{},
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.releaseAll()
			return m, tea.Quit

		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" {
				return m, nil
			}
			if line == "quit" || line == "q" {
				m.releaseAll()
				return m, tea.Quit
			}
			if err := m.exec(line); err != nil {
				m.lastErr = err.Error()
			} else {
				m.lastErr = ""
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) exec(line string) error {
	fields := strings.Fields(line)
	op, args := fields[0], fields[1:]

	switch op {
	case "make":
		if len(args) != 2 {
			return fmt.Errorf("usage: make <name> <value>")
		}
		if _, dup := m.strongs[args[0]]; dup {
			return fmt.Errorf("handle %q already exists", args[0])
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("value %q is not a number", args[1])
		}
		m.strongs[args[0]] = sharedref.Make(box{value: v})

	case "clone":
		if len(args) != 2 {
			return fmt.Errorf("usage: clone <new> <src>")
		}
		src, ok := m.strongs[args[1]]
		if !ok {
			return fmt.Errorf("unknown strong handle %q", args[1])
		}
		m.strongs[args[0]] = src.Clone()

	case "weak":
		if len(args) != 2 {
			return fmt.Errorf("usage: weak <new> <src>")
		}
		src, ok := m.strongs[args[1]]
		if !ok {
			return fmt.Errorf("unknown strong handle %q", args[1])
		}
		m.weaks[args[0]] = sharedref.WeakOf(src)

	case "lock":
		if len(args) != 2 {
			return fmt.Errorf("usage: lock <new> <weak>")
		}
		w, ok := m.weaks[args[1]]
		if !ok {
			return fmt.Errorf("unknown weak handle %q", args[1])
		}
		s := w.Lock()
		if s.IsNil() {
			return fmt.Errorf("weak handle %q is expired", args[1])
		}
		m.strongs[args[0]] = s

	case "release":
		if len(args) != 1 {
			return fmt.Errorf("usage: release <name>")
		}
		if s, ok := m.strongs[args[0]]; ok {
			s.Release()
			delete(m.strongs, args[0])
			return nil
		}
		if w, ok := m.weaks[args[0]]; ok {
			w.Release()
			delete(m.weaks, args[0])
			return nil
		}
		return fmt.Errorf("unknown handle %q", args[0])

	default:
		return fmt.Errorf("unknown command %q (make, clone, weak, lock, release, quit)", op)
	}
	return nil
}

func (m *interactiveModel) releaseAll() {
	for name, s := range m.strongs {
		s.Release()
		delete(m.strongs, name)
	}
	for name, w := range m.weaks {
		w.Release()
		delete(m.weaks, name)
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("rcmon"))
	b.WriteString(fmt.Sprintf("  live values: %s  live blocks: %s\n\n",
		countStyle.Render(strconv.FormatInt(sharedref.LiveValues(), 10)),
		countStyle.Render(strconv.FormatInt(sharedref.LiveBlocks(), 10))))

	names := make([]string, 0, len(m.strongs))
	for name := range m.strongs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := m.strongs[name]
		b.WriteString(fmt.Sprintf("  %s  strong  value=%d  count=%s\n",
			handleStyle.Render(name), s.Get().value,
			countStyle.Render(strconv.Itoa(s.UseCount()))))
	}

	names = names[:0]
	for name := range m.weaks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w := m.weaks[name]
		status := countStyle.Render(fmt.Sprintf("count=%d", w.UseCount()))
		if w.Expired() {
			status = expiredStyle.Render("expired")
		}
		b.WriteString(fmt.Sprintf("  %s  weak    %s\n", handleStyle.Render(name), status))
	}

	if len(m.strongs)+len(m.weaks) == 0 {
		b.WriteString(helpStyle.Render("  no handles\n"))
	}

	if len(m.events) > 0 {
		b.WriteString("\n")
		for _, e := range m.events {
			b.WriteString(eventStyle.Render("  " + e))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.lastErr != "" {
		b.WriteString(errorStyle.Render("  " + m.lastErr))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("  make <name> <n> · clone <new> <src> · weak <new> <src> · lock <new> <w> · release <name> · q"))
	b.WriteString("\n")

	return b.String()
}

func runInteractive() error {
	m := newInteractiveModel()
	sharedref.Subscribe(m)
	defer sharedref.Unsubscribe(m)

	p := tea.NewProgram(m)
	_, err := p.Run()
	return err
}
