// Package tui provides the BubbleTea-based z-order property editor.
package tui

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/zorder/internal/adapter/output"
	"github.com/jmylchreest/zorder/internal/config"
	"github.com/jmylchreest/zorder/internal/layout"
	"github.com/jmylchreest/zorder/internal/view"
	"github.com/jmylchreest/zorder/internal/zorder"
)

// Mode represents the current UI mode.
type Mode int

const (
	ModeList Mode = iota
	ModeEdit
	ModeHelp
)

// errNotInteger is reported when the edit field holds a malformed z-order.
var errNotInteger = errors.New("z-order must be an integer")

// Model is the main TUI model.
type Model struct {
	// Configuration
	cfg  *config.Config
	path string

	// Document being edited
	doc      *layout.Document
	tree     *layout.Tree
	registry *zorder.Registry

	// Current mode
	mode Mode

	// Components
	list  list.Model
	input textinput.Model
	help  help.Model

	// State
	editing       string // name of the view being edited
	showUntracked bool
	dirty         bool
	width         int
	height        int
	ready         bool

	// Key bindings
	keys KeyMap

	// Status message
	statusMsg string
	statusErr bool
}

// viewItem is one row of the flattened tree.
type viewItem struct {
	name    string
	kind    string
	depth   int
	index   int
	zorder  int
	tracked bool
}

func (i viewItem) Title() string {
	return strings.Repeat("  ", i.depth-1) + i.name
}

func (i viewItem) Description() string {
	z := "untracked"
	if i.tracked {
		z = "z-order " + strconv.Itoa(i.zorder)
	}
	return fmt.Sprintf("%s%s · %s · %s",
		strings.Repeat("  ", i.depth-1), i.kind, humanize.Ordinal(i.index+1), z)
}

func (i viewItem) FilterValue() string {
	return i.name
}

// viewDelegate dims untracked views.
type viewDelegate struct {
	list.DefaultDelegate
}

func newViewDelegate() viewDelegate {
	return viewDelegate{DefaultDelegate: list.NewDefaultDelegate()}
}

// Render renders a list item, dimming views without a z-order.
func (d viewDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	vi, ok := item.(viewItem)
	if !ok {
		d.DefaultDelegate.Render(w, m, index, item)
		return
	}

	isSelected := index == m.Index()
	titleStyle := d.DefaultDelegate.Styles.NormalTitle
	descStyle := d.DefaultDelegate.Styles.NormalDesc
	if isSelected {
		titleStyle = d.DefaultDelegate.Styles.SelectedTitle
		descStyle = d.DefaultDelegate.Styles.SelectedDesc
	}
	if !vi.tracked {
		titleStyle = titleStyle.Foreground(lipgloss.Color("8"))
		descStyle = descStyle.Foreground(lipgloss.Color("8"))
	}

	itemWidth := m.Width() - d.DefaultDelegate.Styles.NormalTitle.GetHorizontalPadding()
	title, desc := vi.Title(), vi.Description()
	if itemWidth > 0 && len(title) > itemWidth {
		title = title[:itemWidth-1] + "…"
	}
	if itemWidth > 0 && len(desc) > itemWidth {
		desc = desc[:itemWidth-1] + "…"
	}

	fmt.Fprint(w, titleStyle.Render(title))
	fmt.Fprint(w, "\n")
	fmt.Fprint(w, descStyle.Render(desc))
}

// New creates a TUI model editing doc. Writes go to path.
func New(cfg *config.Config, doc *layout.Document, path string) (Model, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	tree := layout.Build(doc)
	// Logging to stderr would corrupt the alternate screen.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry, err := zorder.NewRegistry(tree.Root,
		zorder.WithLogger(logger),
		zorder.WithStrictContracts(cfg.Registry.Strict),
	)
	if err != nil {
		return Model{}, err
	}
	if err := tree.Apply(doc, registry); err != nil {
		return Model{}, err
	}

	l := list.New(nil, newViewDelegate(), 0, 0)
	l.Title = doc.Root.Name
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	input := textinput.New()
	input.Placeholder = "-1"
	input.CharLimit = 11

	m := Model{
		cfg:           cfg,
		path:          path,
		doc:           doc,
		tree:          tree,
		registry:      registry,
		mode:          ModeList,
		list:          l,
		input:         input,
		help:          help.New(),
		showUntracked: cfg.TUI.ShowUntracked,
		keys:          DefaultKeyMap(),
	}
	m.list.SetItems(m.buildListItems())
	return m, nil
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return nil
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

type copyResultMsg struct {
	err error
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.list.SetSize(msg.Width, msg.Height-2)
		return m, nil

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			return m, status("Copy failed: "+msg.err.Error(), true)
		}
		return m, status("Copied to clipboard", false)
	}

	var cmd tea.Cmd
	switch m.mode {
	case ModeList:
		m.list, cmd = m.list.Update(msg)
	case ModeEdit:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode == ModeEdit {
		return m.handleEditKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		if m.mode == ModeHelp {
			m.mode = ModeList
		} else {
			m.mode = ModeHelp
		}
		return m, nil
	}

	if m.mode == ModeHelp {
		if key.Matches(msg, m.keys.Back) {
			m.mode = ModeList
		}
		return m, nil
	}
	return m.handleListKey(msg)
}

// handleListKey handles keys in list mode.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	item, selected := m.list.SelectedItem().(viewItem)

	switch {
	case key.Matches(msg, m.keys.Edit):
		if !selected {
			return m, nil
		}
		m.editing = item.name
		m.input.SetValue("")
		if item.tracked {
			m.input.SetValue(strconv.Itoa(item.zorder))
		}
		m.input.CursorEnd()
		m.input.Focus()
		m.mode = ModeEdit
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Increase):
		if !selected {
			return m, nil
		}
		return m.setZOrder(item.name, nudge(item, 1))

	case key.Matches(msg, m.keys.Decrease):
		if !selected {
			return m, nil
		}
		return m.setZOrder(item.name, nudge(item, -1))

	case key.Matches(msg, m.keys.Clear):
		if !selected {
			return m, nil
		}
		return m.setZOrder(item.name, zorder.Sentinel)

	case key.Matches(msg, m.keys.Write):
		return m.write()

	case key.Matches(msg, m.keys.Reload):
		return m.reload()

	case key.Matches(msg, m.keys.ToggleUntracked):
		m.showUntracked = !m.showUntracked
		m.refresh("")
		if m.showUntracked {
			return m, status("Showing untracked views", false)
		}
		return m, status("Hiding untracked views", false)

	case key.Matches(msg, m.keys.CopyLayout):
		var buf bytes.Buffer
		if err := m.tree.Capture(m.registry).Write(&buf); err != nil {
			return m, status("Failed to encode layout: "+err.Error(), true)
		}
		return m, m.copyToClipboard(buf.String())

	case key.Matches(msg, m.keys.CopyYAML):
		var buf bytes.Buffer
		opts := output.DefaultFormatterOptions()
		opts.ShowUntracked = m.showUntracked
		if err := output.NewYAMLFormatter(opts).Format(&buf, m.Snapshot()); err != nil {
			return m, status("Failed to marshal YAML: "+err.Error(), true)
		}
		return m, m.copyToClipboard(buf.String())
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleEditKey handles keys while the z-order input is focused.
func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModeList
		m.input.Blur()
		m.editing = ""
		return m, nil

	case tea.KeyEnter:
		z, err := parseZOrder(m.input.Value())
		if err != nil {
			return m, status(err.Error(), true)
		}
		name := m.editing
		m.mode = ModeList
		m.input.Blur()
		m.editing = ""
		return m.setZOrder(name, z)
	}

	prev := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if !validPartial(m.input.Value()) {
		m.input.SetValue(prev)
		return m, tea.Batch(cmd, status(errNotInteger.Error(), true))
	}
	return m, cmd
}

// validPartial accepts any prefix of an integer literal.
func validPartial(s string) bool {
	if s == "" || s == "-" {
		return true
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

// parseZOrder parses the edit field. An empty field clears the z-order.
func parseZOrder(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return zorder.Sentinel, nil
	}
	z, err := strconv.Atoi(s)
	if err != nil {
		return 0, errNotInteger
	}
	return z, nil
}

// nudge steps a z-order by delta, skipping the untracked value. Untracked
// views start at zero.
func nudge(item viewItem, delta int) int {
	if !item.tracked {
		return 0
	}
	z := item.zorder + delta
	if z == zorder.Sentinel {
		z += delta
	}
	return z
}

func (m Model) setZOrder(name string, z int) (tea.Model, tea.Cmd) {
	n, err := m.tree.Lookup(name)
	if err != nil {
		return m, status(err.Error(), true)
	}
	if !m.registry.CanExtend(n) {
		return m, status(name+" cannot carry a z-order", true)
	}
	if m.registry.Priority(n) == z {
		return m, nil
	}
	if err := m.registry.SetPriority(n, z); err != nil {
		return m, status(err.Error(), true)
	}

	m.dirty = true
	m.refresh(name)
	if z == zorder.Sentinel {
		return m, status(name+" untracked", false)
	}
	return m, status(fmt.Sprintf("%s z-order %d", name, z), false)
}

func (m Model) write() (tea.Model, tea.Cmd) {
	if m.path == "" {
		return m, status("No layout path to write to", true)
	}
	doc := m.tree.Capture(m.registry)
	if err := doc.SaveFile(m.path); err != nil {
		return m, status("Write failed: "+err.Error(), true)
	}
	m.doc = doc
	m.dirty = false
	return m, status("Wrote "+m.path, false)
}

func (m Model) reload() (tea.Model, tea.Cmd) {
	if m.path == "" {
		return m, status("No layout path to reload from", true)
	}
	doc, err := layout.LoadFile(m.path)
	if err != nil {
		return m, status("Reload failed: "+err.Error(), true)
	}

	m.tree.Sync(doc)
	if err := m.tree.Apply(doc, m.registry); err != nil {
		return m, status("Reload applied with errors: "+err.Error(), true)
	}
	m.doc = doc
	m.dirty = false
	m.refresh("")
	return m, status("Reloaded "+m.path, false)
}

// refresh rebuilds the list from the tree, keeping the cursor on name (or
// the currently selected view when name is empty).
func (m *Model) refresh(name string) {
	if name == "" {
		if item, ok := m.list.SelectedItem().(viewItem); ok {
			name = item.name
		}
	}
	items := m.buildListItems()
	m.list.SetItems(items)
	for i, it := range items {
		if it.(viewItem).name == name {
			m.list.Select(i)
			break
		}
	}
}

// buildListItems flattens the tree below the root, in child order.
func (m Model) buildListItems() []list.Item {
	var items []list.Item
	m.tree.Root.Walk(func(n *view.Node, depth int) bool {
		if depth == 0 {
			return true
		}
		z := m.registry.Priority(n)
		item := viewItem{
			name:    n.Name(),
			kind:    n.Kind(),
			depth:   depth,
			index:   indexOf(n),
			zorder:  z,
			tracked: z != zorder.Sentinel,
		}
		if !m.showUntracked && !item.tracked && len(n.ChildNodes()) == 0 {
			return true
		}
		items = append(items, item)
		return true
	})
	return items
}

func indexOf(n *view.Node) int {
	if p := n.ParentNode(); p != nil {
		return p.ChildIndex(n)
	}
	return 0
}

// Snapshot returns the edited tree for output formatters.
func (m Model) Snapshot() output.Item {
	return output.Snapshot(m.tree.Root, m.registry.Priority, zorder.Sentinel)
}

// Dirty reports whether there are unwritten z-order changes.
func (m Model) Dirty() bool {
	return m.dirty
}

// copyToClipboard copies text to the system clipboard.
func (m Model) copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		return copyResultMsg{err: copyText(text, m.cfg)}
	}
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.mode {
	case ModeEdit:
		return m.viewEdit()
	case ModeHelp:
		return m.viewHelp()
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	s := m.list.View()

	if m.statusMsg != "" {
		statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		if m.statusErr {
			statusStyle = statusStyle.Foreground(lipgloss.Color("9"))
		}
		s += "\n" + statusStyle.Render(m.statusMsg)
	} else if m.cfg.TUI.ShowHelp {
		s += "\n" + m.help.ShortHelpView(m.keys.ShortHelp())
	}

	if m.dirty {
		s += lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Render("  [modified]")
	}
	return s
}

func (m Model) viewEdit() string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	s := m.list.View() + "\n"
	s += labelStyle.Render("z-order for "+m.editing+": ") + m.input.View()
	if m.statusErr && m.statusMsg != "" {
		s += "  " + lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(m.statusMsg)
	}
	return s
}

func (m Model) viewHelp() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)

	h := m.help
	h.ShowAll = true
	h.Width = m.width

	s := titleStyle.Render("Keyboard Shortcuts") + "\n\n"
	s += h.View(m.keys) + "\n\n"
	s += lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(
		"Higher z-orders sort toward the front. Empty input or x clears a view's z-order.\nPress ? or esc to return")
	return s
}

// RunOptions configures the TUI.
type RunOptions struct {
	Config *config.Config
	Path   string // Layout file to edit; loaded from the embedded layout if missing
}

// Run starts the TUI with the given options.
func Run(opts RunOptions) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	doc, err := layout.Load(opts.Path, cfg.Layout.Name)
	if err != nil {
		return err
	}

	m, err := New(cfg, doc, opts.Path)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.Dirty() {
		slog.Warn("quit with unwritten z-order changes", "path", opts.Path)
	}
	return nil
}
