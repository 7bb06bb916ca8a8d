package tui

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/rs/zerolog"

	"github.com/openfroyo/uconfig/pkg/engine"
)

const (
	screenTitle  = "uconfig: build configuration"
	mainTitle    = "Options"
	noHelp       = "No help provided."
	footnote     = "enter/space: select  backspace: back  h: help  s: save  q: quit"
	reservedRows = 8
)

type mode int

const (
	modeBrowse mode = iota
	modeInput
	modeRadio
	modeHelp
	modeQuit
)

type rowKind int

const (
	rowMenu rowKind = iota
	rowBool
	rowInput
	rowRadio
)

// row is one visible line of the current menu.
type row struct {
	kind rowKind
	menu *engine.Menu
	item *engine.Item
}

// Options configures the browser.
type Options struct {
	// Save persists the database. It is called by the s key and by
	// "save and exit" in the quit dialog.
	Save func() error

	// Logger receives a debug line per user change.
	Logger zerolog.Logger
}

// Model is the bubbletea model of the menu browser. It is not safe for
// concurrent use; bubbletea serializes Update and View.
type Model struct {
	db     *engine.Database
	opts   Options
	logger zerolog.Logger

	pages   []engine.MenuID
	cursors []int

	mode        mode
	input       string
	radioCursor int
	status      string

	saved  bool
	dirty  bool
	width  int
	height int
}

// New creates a browser positioned on the main menu.
func New(db *engine.Database, opts Options) *Model {
	return &Model{
		db:      db,
		opts:    opts,
		logger:  opts.Logger.With().Str("component", "tui").Logger(),
		pages:   []engine.MenuID{engine.MainMenu},
		cursors: []int{0},
	}
}

// Run shows the browser until the user quits or ctx is cancelled.
func Run(ctx context.Context, db *engine.Database, opts Options) (*Model, error) {
	p := tea.NewProgram(New(db, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("running menu: %w", err)
	}
	return final.(*Model), nil
}

// Saved reports whether the user saved at least once.
func (m *Model) Saved() bool {
	return m.saved
}

// Dirty reports whether there are changes made since the last save.
func (m *Model) Dirty() bool {
	return m.dirty
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return m, m.handleKey(msg.String())
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m *Model) page() engine.MenuID {
	return m.pages[len(m.pages)-1]
}

func (m *Model) cursor() int {
	return m.cursors[len(m.cursors)-1]
}

func (m *Model) setCursor(c int) {
	m.cursors[len(m.cursors)-1] = c
}

// rows lists the visible child menus followed by the visible entries of the
// current menu.
func (m *Model) rows() []row {
	menu := m.db.Menu(m.page())
	var rows []row

	for _, id := range menu.Children {
		child := m.db.Menu(id)
		if m.db.Evaluate(child.Dependency) {
			rows = append(rows, row{kind: rowMenu, menu: child})
		}
	}

	for _, id := range menu.Entries {
		it := m.db.Item(id)
		if it.Prompt == "" || !m.db.Evaluate(it.Dependency) {
			continue
		}
		r := row{item: it}
		switch it.Kind() {
		case engine.KindBool:
			r.kind = rowBool
		case engine.KindChoice:
			r.kind = rowRadio
		default:
			r.kind = rowInput
		}
		rows = append(rows, r)
	}

	return rows
}

// current returns the highlighted row, clamping the cursor when entries
// disappeared after a change.
func (m *Model) current() (row, bool) {
	rows := m.rows()
	if len(rows) == 0 {
		m.setCursor(0)
		return row{}, false
	}
	if m.cursor() >= len(rows) {
		m.setCursor(len(rows) - 1)
	}
	return rows[m.cursor()], true
}

// handleKey applies one key press, named as tea.KeyPressMsg.String names it.
func (m *Model) handleKey(key string) tea.Cmd {
	if key == "ctrl+c" {
		return tea.Quit
	}

	switch m.mode {
	case modeInput:
		m.handleInputKey(key)
	case modeRadio:
		m.handleRadioKey(key)
	case modeHelp:
		m.mode = modeBrowse
	case modeQuit:
		return m.handleQuitKey(key)
	default:
		return m.handleBrowseKey(key)
	}
	return nil
}

func (m *Model) handleBrowseKey(key string) tea.Cmd {
	m.status = ""

	switch key {
	case "up", "k":
		if m.cursor() > 0 {
			m.setCursor(m.cursor() - 1)
		}
	case "down", "j":
		if m.cursor() < len(m.rows())-1 {
			m.setCursor(m.cursor() + 1)
		}
	case "backspace", "left", "esc":
		if len(m.pages) > 1 {
			m.pages = m.pages[:len(m.pages)-1]
			m.cursors = m.cursors[:len(m.cursors)-1]
		}
	case "enter", "space", " ", "right":
		m.activate()
	case "h", "?":
		if r, ok := m.current(); ok && r.kind != rowMenu {
			m.mode = modeHelp
		}
	case "s":
		m.save()
	case "q":
		m.mode = modeQuit
	}
	return nil
}

func (m *Model) activate() {
	r, ok := m.current()
	if !ok {
		return
	}

	switch r.kind {
	case rowMenu:
		m.pages = append(m.pages, r.menu.ID)
		m.cursors = append(m.cursors, 0)
	case rowBool:
		m.apply(r.item, func() error { return m.db.ToggleConfig(r.item, "") })
	case rowInput:
		m.input = r.item.Value().Format()
		m.mode = modeInput
	case rowRadio:
		m.radioCursor = 0
		for i, opt := range r.item.Options() {
			if opt.Flags&engine.FlagSelected != 0 {
				m.radioCursor = i
			}
		}
		m.mode = modeRadio
	}
}

// apply runs a mutation of it and reports a failure in the status line.
func (m *Model) apply(it *engine.Item, mutate func() error) bool {
	if err := mutate(); err != nil {
		m.status = err.Error()
		return false
	}
	m.dirty = true
	m.logger.Debug().
		Str("symbol", it.Symbol).
		Str("value", it.Value().Format()).
		Msg("Entry changed")
	return true
}

func (m *Model) handleInputKey(key string) {
	r, ok := m.current()
	if !ok {
		m.mode = modeBrowse
		return
	}

	switch key {
	case "enter":
		if m.apply(r.item, func() error { return m.db.ToggleConfig(r.item, m.input) }) {
			m.mode = modeBrowse
		}
	case "esc":
		m.status = ""
		m.mode = modeBrowse
	case "backspace":
		if m.input != "" {
			_, size := utf8.DecodeLastRuneInString(m.input)
			m.input = m.input[:len(m.input)-size]
		}
	case "space":
		m.input += " "
	default:
		if utf8.RuneCountInString(key) == 1 {
			m.input += key
		}
	}
}

func (m *Model) handleRadioKey(key string) {
	r, ok := m.current()
	if !ok {
		m.mode = modeBrowse
		return
	}
	options := r.item.Options()

	switch key {
	case "up", "k":
		if m.radioCursor > 0 {
			m.radioCursor--
		}
	case "down", "j":
		if m.radioCursor < len(options)-1 {
			m.radioCursor++
		}
	case "enter", "space", " ":
		label := options[m.radioCursor].Value.Format()
		if m.apply(r.item, func() error { return m.db.ToggleChoiceOption(r.item, label) }) {
			m.mode = modeBrowse
		}
	case "esc", "backspace":
		m.mode = modeBrowse
	}
}

func (m *Model) handleQuitKey(key string) tea.Cmd {
	switch key {
	case "s", "S":
		if m.save() {
			return tea.Quit
		}
		m.mode = modeBrowse
	case "x", "X":
		return tea.Quit
	case "c", "C", "esc":
		m.mode = modeBrowse
	}
	return nil
}

func (m *Model) save() bool {
	if m.opts.Save != nil {
		if err := m.opts.Save(); err != nil {
			m.status = "save failed: " + err.Error()
			m.logger.Error().Err(err).Msg("Failed to save configuration")
			return false
		}
	}
	m.saved = true
	m.dirty = false
	m.status = "Configuration saved"
	return true
}

// title is the prompt of the current menu.
func (m *Model) title() string {
	menu := m.db.Menu(m.page())
	if menu.IsRoot() {
		return mainTitle
	}
	return menu.Prompt
}

// lines renders the rows of the current menu without styling.
func (m *Model) lines() []string {
	rows := m.rows()
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, formatRow(r))
	}
	return out
}

func formatRow(r row) string {
	switch r.kind {
	case rowMenu:
		return "[+] " + r.menu.Prompt
	case rowBool:
		if r.item.Value().Bool {
			return "[*] " + r.item.Prompt
		}
		return "[ ] " + r.item.Prompt
	default:
		return fmt.Sprintf("    %s (%s)", r.item.Prompt, r.item.Value().Format())
	}
}

// helpText describes the highlighted entry.
func (m *Model) helpText() string {
	r, ok := m.current()
	if !ok || r.item == nil {
		return noHelp
	}
	it := r.item

	var b strings.Builder
	if it.Help != "" {
		b.WriteString(it.Help)
	} else {
		b.WriteString(noHelp)
	}
	fmt.Fprintf(&b, "\n\nSymbol: %s\nType: %s\nValue: %s", it.Symbol, it.Kind(), it.Value().Format())
	if dep := it.Dependency.String(); dep != "" {
		fmt.Fprintf(&b, "\nDepends on: %s", dep)
	}
	if selects := it.Selects(); len(selects) > 0 {
		fmt.Fprintf(&b, "\nSelects: %s", strings.Join(selects, ", "))
	}
	if it.Refcount > 0 {
		fmt.Fprintf(&b, "\nHeld on by %d more selector(s)", it.Refcount)
	}
	return b.String()
}

// visibleRange returns the slice of rows that fits the terminal.
func (m *Model) visibleRange(n int) (int, int) {
	height := m.height - reservedRows
	if m.height == 0 || height >= n {
		return 0, n
	}
	if height < 1 {
		height = 1
	}
	start := 0
	if m.cursor() >= height {
		start = m.cursor() - height + 1
	}
	return start, start + height
}

// View renders the UI
func (m *Model) View() tea.View {
	return tea.NewView(m.render())
}

func (m *Model) render() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(screenTitle))
	b.WriteString("\n")
	b.WriteString(menuTitleStyle.Render("[-] " + m.title()))
	b.WriteString("\n\n")

	m.current()
	lines := m.lines()
	start, end := m.visibleRange(len(lines))
	for i := start; i < end; i++ {
		if i == m.cursor() {
			b.WriteString(selectedRowStyle.Render("    " + lines[i]))
		} else {
			b.WriteString(rowStyle.Render("    " + lines[i]))
		}
		b.WriteString("\n")
	}
	if len(lines) == 0 {
		b.WriteString(helpStyle.Render("    (no visible entries)"))
		b.WriteString("\n")
	}

	switch m.mode {
	case modeInput:
		r, _ := m.current()
		b.WriteString("\n")
		b.WriteString(boxStyle.Render(r.item.Prompt + "\n> " + m.input + "_"))
		b.WriteString("\n")
	case modeRadio:
		r, _ := m.current()
		var radio strings.Builder
		radio.WriteString(r.item.Prompt)
		for i, opt := range r.item.Options() {
			mark := "( )"
			if opt.Flags&engine.FlagSelected != 0 {
				mark = "(*)"
			}
			pointer := "  "
			if i == m.radioCursor {
				pointer = "> "
			}
			fmt.Fprintf(&radio, "\n%s%s %s", pointer, mark, opt.Value.Format())
		}
		b.WriteString("\n")
		b.WriteString(boxStyle.Render(radio.String()))
		b.WriteString("\n")
	case modeHelp:
		b.WriteString("\n")
		b.WriteString(boxStyle.Render(m.helpText()))
		b.WriteString("\n")
	case modeQuit:
		b.WriteString("\n")
		b.WriteString(boxStyle.Render("Are you sure?\n[S]ave and exit  E[x]it  [C]ancel"))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(footnote))

	return b.String()
}
