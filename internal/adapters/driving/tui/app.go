package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Rows taken by the header, the bordered input and the status bar.
const chromeHeight = 6

// Notes shown beneath answers that did not complete.
const (
	noteStopped = "stopped"
	noteFailed  = "failed"
)

// App is a chat about one document following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the parent of every answer context.
	ctx context.Context

	styles     *styles.Styles
	keymap     *keymap.KeyMap
	help       help.Model
	input      *input.ChatInput
	transcript *transcript.Transcript
	status     *status.Bar

	docID string
	stats *domain.DocumentStats

	// history holds completed turns, oldest first.
	history []domain.ChatTurn

	// pending is the question being answered.
	pending string

	// stream is the open answer. Only one Next call is in flight at a time.
	stream *messages.Stream

	// cancel aborts the open answer.
	cancel context.CancelFunc

	// stopping is set once the user stopped the open answer.
	stopping bool

	showHelp bool

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a chat over docID.
func NewApp(ports *Ports, docID string) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if docID == "" {
		return nil, fmt.Errorf("creating app: %w", ErrMissingDocumentID)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	h := help.New()
	h.Styles.FullKey = s.Subtitle
	h.Styles.FullDesc = s.Muted

	return &App{
		ports:      ports,
		ctx:        context.Background(),
		styles:     s,
		keymap:     km,
		help:       h,
		input:      input.NewChatInput(s),
		transcript: transcript.New(s),
		status:     status.NewBar(s, km),
		docID:      docID,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("docqa - "+a.docID),
		a.input.Init(),
		a.status.Init(),
		a.loadDocument(),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.status, cmd = a.status.Update(msg)
		return a, cmd

	case messages.DocumentLoaded:
		if msg.Err != nil {
			a.fail(fmt.Errorf("loading document %s: %w", a.docID, msg.Err))
			return a, nil
		}
		a.stats = msg.Stats
		a.status.SetState(status.StateReady)
		return a, nil

	case messages.QuestionSubmitted:
		return a, a.ask(msg.Question)

	case messages.AnswerStarted:
		if msg.Err != nil {
			a.finishAnswer(msg.Err)
			return a, nil
		}
		a.stream = msg.Stream
		if a.stopping {
			a.finishAnswer(nil)
			return a, nil
		}
		a.status.SetState(status.StateStreaming)
		return a, nextFragment(a.stream)

	case messages.AnswerFragment:
		if a.stopping {
			a.finishAnswer(nil)
			return a, nil
		}
		a.transcript.AppendAnswer(msg.Text)
		return a, nextFragment(a.stream)

	case messages.AnswerCompleted:
		a.finishAnswer(msg.Err)
		return a, nil

	case messages.ErrorOccurred:
		a.fail(msg.Err)
		return a, nil

	case messages.Quit:
		a.abort()
		return a, tea.Quit
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keymap.Quit):
		a.abort()
		return a, tea.Quit

	case key.Matches(msg, a.keymap.Help):
		a.toggleHelp()
		return a, nil

	case key.Matches(msg, a.keymap.Cancel):
		if a.showHelp {
			a.toggleHelp()
			return a, nil
		}
		a.stop()
		return a, nil

	case key.Matches(msg, a.keymap.ScrollUp):
		a.transcript.ScrollUp()
		return a, nil

	case key.Matches(msg, a.keymap.ScrollDown):
		a.transcript.ScrollDown()
		return a, nil

	case key.Matches(msg, a.keymap.Clear):
		if !a.Streaming() {
			a.history = nil
			a.transcript.Clear()
			a.status.Clear()
			a.err = nil
		}
		return a, nil

	case key.Matches(msg, a.keymap.Submit):
		if a.Streaming() || a.stats == nil {
			return a, nil
		}
		question, ok := a.input.Submit()
		if !ok {
			return a, nil
		}
		return a, func() tea.Msg { return messages.QuestionSubmitted{Question: question} }
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// ask opens an answer stream for question with the completed turns as history.
func (a *App) ask(question string) tea.Cmd {
	if a.Streaming() {
		return nil
	}

	ctx, cancel := context.WithCancel(a.ctx)
	a.cancel = cancel
	a.stopping = false
	a.pending = question
	a.err = nil

	a.transcript.AddQuestion(question)
	a.transcript.StartAnswer()
	a.input.Blur()
	a.status.SetMessage("")
	a.status.SetState(status.StateThinking)

	req := driving.AskRequest{
		DocID:    a.docID,
		Question: question,
		History:  append([]domain.ChatTurn(nil), a.history...),
	}
	query := a.ports.Query
	return func() tea.Msg {
		seq, err := query.AskStream(ctx, req)
		if err != nil {
			return messages.AnswerStarted{Err: err}
		}
		return messages.AnswerStarted{Stream: messages.NewStream(seq)}
	}
}

// nextFragment pulls one fragment from stream.
func nextFragment(stream *messages.Stream) tea.Cmd {
	return func() tea.Msg {
		text, err, ok := stream.Next()
		if !ok {
			return messages.AnswerCompleted{}
		}
		if err != nil {
			return messages.AnswerCompleted{Err: err}
		}
		return messages.AnswerFragment{Text: text}
	}
}

// stop cancels the open answer. The stream is released when its
// in-flight fragment arrives.
func (a *App) stop() {
	if !a.Streaming() || a.stopping {
		return
	}
	a.stopping = true
	a.cancel()
}

// finishAnswer closes the open answer and records it when it completed.
func (a *App) finishAnswer(err error) {
	if a.stream != nil {
		a.stream.Stop()
		a.stream = nil
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}

	stopped := a.stopping || errors.Is(err, context.Canceled)
	a.stopping = false

	note := ""
	switch {
	case stopped:
		note = noteStopped
	case err != nil:
		note = noteFailed
	}
	answer := a.transcript.FinishAnswer(note)
	a.input.Focus()

	if err != nil && !stopped {
		a.fail(err)
		return
	}
	if stopped {
		a.status.SetState(status.StateReady)
		a.status.SetMessage("answer stopped")
		return
	}

	a.history = append(a.history,
		domain.ChatTurn{Role: domain.ChatRoleUser, Content: a.pending},
		domain.ChatTurn{Role: domain.ChatRoleAssistant, Content: answer},
	)
	a.pending = ""
	a.status.SetState(status.StateReady)
	a.status.SetMessage("")
	a.status.SetTurns(len(a.history) / 2)
}

// abort releases the open answer before quitting.
func (a *App) abort() {
	if a.cancel != nil {
		a.cancel()
	}
}

func (a *App) fail(err error) {
	a.err = err
	a.status.SetState(status.StateError)
	a.status.SetMessage(err.Error())
}

func (a *App) toggleHelp() {
	a.showHelp = !a.showHelp
	switch {
	case a.showHelp:
		a.status.SetState(status.StateHelp)
	case a.Streaming():
		a.status.SetState(status.StateStreaming)
	case a.err != nil:
		a.status.SetState(status.StateError)
	case a.stats == nil:
		a.status.SetState(status.StateLoading)
	default:
		a.status.SetState(status.StateReady)
	}
}

func (a *App) loadDocument() tea.Cmd {
	ctx, document, docID := a.ctx, a.ports.Document, a.docID
	return func() tea.Msg {
		stats, err := document.Stats(ctx, docID)
		return messages.DocumentLoaded{Stats: stats, Err: err}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	body := a.transcript.View()
	if a.showHelp {
		body = a.help.FullHelpView(a.keymap.FullHelp())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		a.viewHeader(),
		body,
		a.input.View(),
		a.status.View(),
	)
}

func (a *App) viewHeader() string {
	title := a.docID
	if a.stats != nil {
		title = fmt.Sprintf("%s  %s", a.stats.Filename,
			a.styles.Muted.Render(fmt.Sprintf("%d pages · %d chunks · %s",
				a.stats.TotalPages, a.stats.ChunkCount, a.docID)))
	}
	return a.styles.Header.Width(a.width).Render(title)
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	a.abort()
	if errors.Is(err, tea.ErrProgramKilled) && a.ctx.Err() != nil {
		return nil
	}
	return err
}

// DocID returns the document being discussed.
func (a *App) DocID() string {
	return a.docID
}

// Stats returns the document stats once loaded.
func (a *App) Stats() *domain.DocumentStats {
	return a.stats
}

// History returns the completed turns, oldest first.
func (a *App) History() []domain.ChatTurn {
	return a.history
}

// Streaming reports whether an answer is open.
func (a *App) Streaming() bool {
	return a.cancel != nil
}

// ShowingHelp reports whether the help view is open.
func (a *App) ShowingHelp() bool {
	return a.showHelp
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been sized.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions lays the components out for a terminal of the given size.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.input.SetWidth(width)
	a.status.SetWidth(width)
	a.help.Width = width
	a.transcript.SetSize(width, height-chromeHeight)
}
