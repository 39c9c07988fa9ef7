package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"vidx/internal/jobs"
	"vidx/internal/models"
	"vidx/internal/notify"
	"vidx/internal/session"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	JobListView
	JobDetailView
	HistoryView
)

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	session *session.Store
	poller  *jobs.Poller
	bus     *notify.Bus
	width   int
	height  int

	email       textinput.Model
	password    textinput.Model
	focusIdx    int
	loggingIn   bool
	loginErr    error

	jobList  list.Model
	selected *models.Job
	bar      progress.Model
	stale    bool

	help help.Model
	keys keyMap
}

type pollerUpdateMsg jobs.Update

type pollerClosedMsg struct{}

type busEventMsg notify.Event

type busClosedMsg struct{}

type loginResultMsg struct {
	user *models.User
	err  error
}

type actionResultMsg struct {
	verb string
	err  error
}

// NewModel creates a new TUI model with the provided dependencies. The
// session store must already be restored; the poller must be running.
func NewModel(ctx context.Context, sess *session.Store, poller *jobs.Poller, bus *notify.Bus) *Model {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 254
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = 128

	jl := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	jl.Title = "Active Jobs"
	jl.SetShowStatusBar(false)

	view := LoginView
	if sess.Authenticated() {
		view = JobListView
	}

	return &Model{
		ctx:      ctx,
		view:     view,
		session:  sess,
		poller:   poller,
		bus:      bus,
		email:    email,
		password: password,
		jobList:  jl,
		bar:      progress.New(progress.WithDefaultGradient()),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init starts the two background listeners.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForPoller(), m.waitForBus(), textinput.Blink)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.jobList.SetSize(msg.Width-4, msg.Height-8)
		m.bar.Width = msg.Width - 10
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case JobListView:
			return m.handleJobListKeys(msg)
		case JobDetailView:
			return m.handleJobDetailKeys(msg)
		case HistoryView:
			return m.handleHistoryKeys(msg)
		}

	case pollerUpdateMsg:
		m.applyUpdate(jobs.Update(msg))
		return m, m.waitForPoller()

	case pollerClosedMsg:
		return m, nil

	case busEventMsg:
		// State lives on the bus; the event only forces a re-render.
		return m, m.waitForBus()

	case busClosedMsg:
		return m, nil

	case loginResultMsg:
		m.loggingIn = false
		if msg.err != nil {
			m.loginErr = msg.err
			return m, nil
		}
		m.loginErr = nil
		m.password.SetValue("")
		m.view = JobListView
		m.poller.Invalidate()
		m.bus.Success(fmt.Sprintf("Signed in as %s", msg.user.Email))
		return m, nil

	case actionResultMsg:
		if msg.err != nil {
			m.bus.Error(fmt.Sprintf("%s failed: %v", msg.verb, msg.err))
		}
		return m, nil
	}

	return m.updateChildren(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case LoginView:
		body = m.renderLogin()
	case JobListView:
		body = m.renderJobList()
	case JobDetailView:
		body = m.renderJobDetail()
	case HistoryView:
		body = m.renderHistory()
	}

	if banner := m.renderNotifications(); banner != "" {
		return fmt.Sprintf("%s\n%s", banner, body)
	}
	return body
}

// applyUpdate folds a poller push into the model, surfacing terminal
// transitions as notifications.
func (m *Model) applyUpdate(u jobs.Update) {
	switch u.Kind {
	case jobs.ActiveJobsRefreshed:
		m.stale = false
		items := make([]list.Item, len(u.Jobs))
		for i, j := range u.Jobs {
			items[i] = jobItem{job: j}
		}
		m.jobList.SetItems(items)

	case jobs.SelectedJobRefreshed:
		m.selected = u.Job

	case jobs.SelectedJobFinished:
		m.selected = u.Job
		name := filepath.Base(u.Job.VideoPath)
		if u.Job.Status == models.StatusCompleted {
			m.bus.Success(fmt.Sprintf("Processing complete: %s", name))
		} else {
			msg := u.Job.Error
			if msg == "" {
				msg = "processing failed"
			}
			m.bus.Error(fmt.Sprintf("%s: %s", name, msg))
		}
		m.poller.Invalidate()

	case jobs.RefreshFailed:
		m.stale = true
	}
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab", "shift+tab":
		m.focusIdx = 1 - m.focusIdx
		if m.focusIdx == 0 {
			m.password.Blur()
			return m, m.email.Focus()
		}
		m.email.Blur()
		return m, m.password.Focus()
	case "enter":
		if m.loggingIn {
			return m, nil
		}
		if m.focusIdx == 0 {
			m.focusIdx = 1
			m.email.Blur()
			return m, m.password.Focus()
		}
		m.loggingIn = true
		return m, m.login(m.email.Value(), m.password.Value())
	}

	var cmd tea.Cmd
	if m.focusIdx == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleJobListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.jobList.FilterState() == list.Filtering {
		return m.updateChildren(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if item, ok := m.jobList.SelectedItem().(jobItem); ok {
			m.selected = nil
			m.poller.Select(item.job.ID)
			m.view = JobDetailView
		}
		return m, nil
	case "h":
		m.view = HistoryView
		return m, nil
	case "x":
		if active := m.bus.Active(); len(active) > 0 {
			m.bus.Dismiss(active[0].ID)
		}
		return m, nil
	case "+", "-":
		if item, ok := m.jobList.SelectedItem().(jobItem); ok {
			direction := "up"
			if msg.String() == "-" {
				direction = "down"
			}
			return m, m.prioritize(item.job.ID, direction)
		}
		return m, nil
	case "c":
		if item, ok := m.jobList.SelectedItem().(jobItem); ok {
			return m, m.cancel(item.job.ID)
		}
		return m, nil
	}

	return m.updateChildren(msg)
}

func (m *Model) handleJobDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.poller.Deselect()
		m.selected = nil
		m.view = JobListView
		return m, nil
	case "c":
		if m.selected != nil && !m.selected.Status.Terminal() {
			return m, m.cancel(m.selected.ID)
		}
		return m, nil
	case "+", "-":
		if m.selected != nil && m.selected.Status == models.StatusPending {
			direction := "up"
			if msg.String() == "-" {
				direction = "down"
			}
			return m, m.prioritize(m.selected.ID, direction)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "h":
		m.view = JobListView
		return m, nil
	case "x":
		m.bus.ClearHistory()
		return m, nil
	}
	return m, nil
}

func (m *Model) updateChildren(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case JobListView:
		m.jobList, cmd = m.jobList.Update(msg)
	case LoginView:
		if m.focusIdx == 0 {
			m.email, cmd = m.email.Update(msg)
		} else {
			m.password, cmd = m.password.Update(msg)
		}
	}
	return m, cmd
}

func (m *Model) login(email, password string) tea.Cmd {
	return func() tea.Msg {
		user, err := m.session.Login(m.ctx, email, password)
		return loginResultMsg{user: user, err: err}
	}
}

func (m *Model) cancel(id string) tea.Cmd {
	return func() tea.Msg {
		return actionResultMsg{verb: "Cancel", err: m.poller.Cancel(m.ctx, id)}
	}
}

func (m *Model) prioritize(id, direction string) tea.Cmd {
	return func() tea.Msg {
		return actionResultMsg{verb: "Priority change", err: m.poller.Prioritize(m.ctx, id, direction)}
	}
}

func (m *Model) waitForPoller() tea.Cmd {
	return func() tea.Msg {
		u, ok := <-m.poller.Updates()
		if !ok {
			return pollerClosedMsg{}
		}
		return pollerUpdateMsg(u)
	}
}

func (m *Model) waitForBus() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.bus.Events()
		if !ok {
			return busClosedMsg{}
		}
		return busEventMsg(ev)
	}
}

func (m *Model) renderNotifications() string {
	active := m.bus.Active()
	if len(active) == 0 {
		return ""
	}

	lines := make([]string, 0, len(active))
	for _, n := range active {
		text := n.Message
		if n.Action != nil {
			text = fmt.Sprintf("%s [%s]", text, n.Action.Label)
		}
		switch n.Level {
		case notify.LevelSuccess:
			lines = append(lines, styles.ok.Render(text))
		case notify.LevelError:
			lines = append(lines, styles.err.Render(text))
		case notify.LevelWarning:
			lines = append(lines, styles.warn.Render(text))
		default:
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderLogin() string {
	title := styles.title.Render("Sign in")

	var errLine string
	if m.loginErr != nil {
		errLine = styles.err.Render(fmt.Sprintf("\n%v", m.loginErr))
	}

	status := ""
	if m.loggingIn {
		status = styles.help.Render("\nSigning in...")
	}

	helpView := m.help.ShortHelpView([]key.Binding{
		key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch field")),
		m.keys.enter,
		m.keys.quit,
	})

	return fmt.Sprintf("%s\n%s\n%s%s%s\n\n%s",
		title, m.email.View(), m.password.View(), errLine, status, helpView)
}

func (m *Model) renderJobList() string {
	var header string
	if m.stale {
		header = styles.warn.Render("Connection lost, showing last known state") + "\n"
	}

	helpView := m.help.ShortHelpView([]key.Binding{
		m.keys.enter, m.keys.cancel, m.keys.moveUp, m.keys.moveDown, m.keys.history, m.keys.quit,
	})
	return fmt.Sprintf("%s%s\n\n%s", header, m.jobList.View(), helpView)
}

func (m *Model) renderJobDetail() string {
	if m.selected == nil {
		return styles.help.Render("Loading job...")
	}
	j := m.selected

	title := styles.title.Render(filepath.Base(j.VideoPath))

	var status string
	switch j.Status {
	case models.StatusCompleted:
		status = styles.ok.Render("✓ completed")
	case models.StatusFailed:
		status = styles.err.Render("✗ failed: " + j.Error)
	case models.StatusProcessing:
		status = fmt.Sprintf("processing • %s", j.CurrentStage)
		if j.CurrentStageDetails != "" {
			status = fmt.Sprintf("%s (%s)", status, j.CurrentStageDetails)
		}
	default:
		status = "queued"
	}

	bar := m.bar.ViewAs(j.Progress / 100)

	var result string
	if j.Result != nil && j.Result.OutputPath != "" {
		result = fmt.Sprintf("\nOutput: %s", j.Result.OutputPath)
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	if !j.Status.Terminal() {
		helpKeys = append([]key.Binding{m.keys.cancel}, helpKeys...)
	}
	if j.Status == models.StatusPending {
		helpKeys = append([]key.Binding{m.keys.moveUp, m.keys.moveDown}, helpKeys...)
	}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s%s\n\n%s", title, status, bar, result, helpView)
}

func (m *Model) renderHistory() string {
	title := styles.title.Render("Notification History")

	history := m.bus.History()
	if len(history) == 0 {
		empty := styles.help.Render("Nothing yet")
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
		return fmt.Sprintf("%s\n%s\n\n%s", title, empty, helpView)
	}

	lines := make([]string, 0, len(history))
	for _, n := range history {
		stamp := styles.help.Render(n.Timestamp.Format("15:04:05"))
		lines = append(lines, fmt.Sprintf("%s  [%s] %s", stamp, n.Level, n.Message))
	}

	helpView := m.help.ShortHelpView([]key.Binding{
		m.keys.back,
		key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear")),
		m.keys.quit,
	})
	return fmt.Sprintf("%s\n%s\n\n%s", title, strings.Join(lines, "\n"), helpView)
}
