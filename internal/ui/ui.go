package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hesi-tools/memberdir/internal/tasks"
	"github.com/hesi-tools/memberdir/internal/tabular"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	DocumentListView ViewState = iota
	ProblemListView
	ConfirmView
	WriteView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *tasks.Engine
	records      []tabular.Record
	opts         tasks.ImportOptions
	width        int
	height       int
	documentList list.Model
	problemList  list.Model
	preview      *tasks.ImportResult
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	result       *tasks.ImportResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a review model over already-parsed records. The model
// runs one dry-run pass up front and a real import only after confirmation.
func NewModel(ctx context.Context, engine *tasks.Engine, records []tabular.Record, opts tasks.ImportOptions) *Model {
	return &Model{
		ctx:     ctx,
		view:    DocumentListView,
		engine:  engine,
		records: records,
		opts:    opts,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the dry-run build that feeds the review lists.
func (m *Model) Init() tea.Cmd {
	return m.buildPreview()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.documentList.Width() == 0 {
			m.documentList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.problemList.Width() == 0 {
			m.problemList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case DocumentListView:
			return m.handleDocumentListKeys(msg)
		case ProblemListView:
			return m.handleProblemListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case previewBuiltMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.preview = msg.result

		docs := make([]list.Item, len(msg.result.Documents))
		for i, doc := range msg.result.Documents {
			docs[i] = documentItem{doc: doc}
		}
		m.documentList = list.New(docs, list.NewDefaultDelegate(), 0, 0)
		m.documentList.Title = fmt.Sprintf("Prepared documents (%d of %d rows)",
			len(msg.result.Documents), msg.result.RowsRead)
		m.documentList.SetSize(m.width-4, m.height-8)

		rows := msg.result.Problems.Rows()
		problems := make([]list.Item, len(rows))
		for i, p := range rows {
			problems[i] = problemItem{problem: p}
		}
		m.problemList = list.New(problems, list.NewDefaultDelegate(), 0, 0)
		m.problemList.Title = fmt.Sprintf("Problems (%d)", len(rows))
		m.problemList.SetSize(m.width-4, m.height-8)
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case importCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}
	if m.preview == nil {
		return "Building documents..."
	}

	switch m.view {
	case DocumentListView:
		return m.renderDocumentList()
	case ProblemListView:
		return m.renderProblemList()
	case ConfirmView:
		return m.renderConfirm()
	case WriteView:
		return m.renderWrite()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleDocumentListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "p":
		m.view = ProblemListView
		return m, nil
	case "enter":
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.documentList, cmd = m.documentList.Update(msg)
	return m, cmd
}

func (m *Model) handleProblemListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "p":
		m.view = DocumentListView
		return m, nil
	}

	var cmd tea.Cmd
	m.problemList, cmd = m.problemList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "n", "esc":
		m.view = DocumentListView
		return m, nil
	case "y":
		m.view = WriteView
		return m, m.startImport()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case DocumentListView:
		m.documentList, cmd = m.documentList.Update(msg)
	case ProblemListView:
		m.problemList, cmd = m.problemList.Update(msg)
	}
	return m, cmd
}

func (m *Model) buildPreview() tea.Cmd {
	return func() tea.Msg {
		opts := m.opts
		opts.DryRun = true
		result, err := m.engine.Import(m.ctx, nil, m.records, opts)
		return previewBuiltMsg{result: result, err: err}
	}
}

func (m *Model) startImport() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	ch := m.progressChan

	go func() {
		opts := m.opts
		opts.DryRun = false
		result, err := m.engine.Import(m.ctx, ch, m.records, opts)
		m.result = result
		m.err = err
		close(ch)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return importCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return importCompleteMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderDocumentList() string {
	reviewKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "write"))
	helpKeys := []key.Binding{reviewKey, m.keys.problems, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	var warn string
	if n := m.preview.Problems.Total(); n > 0 {
		warn = styles.warn.Render(fmt.Sprintf("%d problems recorded, press p to review", n)) + "\n"
	}
	return fmt.Sprintf("%s\n%s\n%s", m.documentList.View(), warn, helpView)
}

func (m *Model) renderProblemList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.problemList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Write %d documents to the store?", len(m.preview.Documents)))
	info := fmt.Sprintf("\nRows read: %d\nDocuments: %d\nProblems: %d\nUnmatched countries: %d\n",
		m.preview.RowsRead, len(m.preview.Documents), m.preview.Problems.Total(), len(m.preview.Unmatched))

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderWrite() string {
	title := styles.title.Render("Writing documents")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchCountries:
		phase = "Fetching canonical countries..."
	case tasks.BuildDocuments:
		phase = fmt.Sprintf("Building documents (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.WriteBatch:
		phase = fmt.Sprintf("Committing batch %d/%d", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Import failed: %v\n\nPress q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress q to quit")
	}

	title := styles.ok.Render("✓ Import complete")
	info := fmt.Sprintf(
		"\nRows read: %d\nDocuments written: %d\nProblems: %d",
		m.result.RowsRead, m.result.Written, m.result.Problems.Total(),
	)

	var unmatched string
	if len(m.result.Unmatched) > 0 {
		unmatched = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("%d unmatched country spellings:", len(m.result.Unmatched))))
		for _, entry := range m.result.Unmatched {
			unmatched += fmt.Sprintf("\n  • %dx %s", entry.Count, entry.Name)
		}
	}

	helpKeys := []key.Binding{m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, unmatched, helpView)
}
