package cli

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/luongnguyenminhan/enterviu-go/internal/api"
	"github.com/luongnguyenminhan/enterviu-go/internal/chatws"
	"github.com/luongnguyenminhan/enterviu-go/internal/models"
	"github.com/luongnguyenminhan/enterviu-go/internal/session"
	"github.com/spf13/cobra"
)

var (
	chatNoStream   bool
	chatCreateName string
)

var chatCmd = &cobra.Command{
	Use:   "chat [conversation-id]",
	Short: "Open the interactive chat",
	Long: `Open the interactive chat for a conversation.

Without an id, the most recently active conversation is opened (or created
when none exists). Replies stream over a WebSocket by default; --no-stream
falls back to the synchronous REST path.

Examples:
  enterviu chat
  enterviu chat 42
  enterviu chat --new "Salary negotiation"
  enterviu chat --no-stream`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatNoStream, "no-stream", false, "use the synchronous send path instead of the socket")
	chatCmd.Flags().StringVar(&chatCreateName, "new", "", "create a conversation with this name and open it")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orch := session.New(restClient, logger)

	conversationID, err := resolveConversation(ctx, orch, args)
	if err != nil {
		return err
	}

	if err := orch.SwitchConversation(ctx, conversationID); err != nil {
		return fmt.Errorf("open conversation: %w", err)
	}

	var sess *chatws.Session
	if !chatNoStream {
		sess, err = openSocket(ctx, orch, conversationID)
		if err != nil {
			// Streaming is best-effort; the REST path still works.
			logger.Warn("socket unavailable, falling back to synchronous sends", "error", err)
		}
	}
	if sess != nil {
		defer sess.Close()
	}

	model := newChatModel(orch, sess)
	p := tea.NewProgram(model)

	// Repaint on every committed snapshot, socket events included.
	orch.SetOnChange(func() {
		p.Send(stateChangedMsg{})
	})

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}
	return nil
}

// resolveConversation picks the conversation to open: --new creates one, an
// argument selects one, otherwise the most recently active is used (created
// when the list is empty).
func resolveConversation(ctx context.Context, orch *session.Orchestrator, args []string) (string, error) {
	if chatCreateName != "" {
		conv, err := orch.CreateConversation(ctx, api.CreateConversationRequest{Name: chatCreateName})
		if err != nil {
			return "", fmt.Errorf("create conversation: %w", err)
		}
		return conv.ID, nil
	}

	if len(args) == 1 {
		return args[0], nil
	}

	if err := orch.LoadConversations(ctx); err != nil {
		return "", fmt.Errorf("load conversations: %w", err)
	}
	snap := orch.Snapshot()
	if len(snap.Conversations) > 0 {
		latest := snap.Conversations[0]
		for _, c := range snap.Conversations[1:] {
			if c.LastActivity.After(latest.LastActivity) {
				latest = c
			}
		}
		return latest.ID, nil
	}

	conv, err := orch.CreateConversation(ctx, api.CreateConversationRequest{Name: "New conversation"})
	if err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}
	return conv.ID, nil
}

// openSocket fetches a fresh conversation-scoped token and dials the chat
// socket. Tokens are short-lived, so this runs per open, never from cache.
func openSocket(ctx context.Context, orch *session.Orchestrator, conversationID string) (*chatws.Session, error) {
	wsToken, err := restClient.GetWebSocketToken(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("fetch socket token: %w", err)
	}

	endpoint, err := chatws.EndpointURL(restClient.BaseURL(), conversationID, wsToken.Token)
	if err != nil {
		return nil, err
	}

	return chatws.Dial(ctx, chatws.Config{
		URL:    endpoint,
		Token:  wsToken.Token,
		APIKey: cfg.APIKey,
		Logger: logger,
		Stats:  collector,
	}, orch.SocketHandler())
}

// chatTheme holds the chat color scheme.
type chatTheme struct {
	User      lipgloss.Style
	Assistant lipgloss.Style
	Meta      lipgloss.Style
	Error     lipgloss.Style
	Survey    lipgloss.Style
}

func defaultChatTheme() chatTheme {
	return chatTheme{
		User:      lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFD7")).Bold(true),
		Assistant: lipgloss.NewStyle().Foreground(lipgloss.Color("#00D787")).Bold(true),
		Meta:      lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C")).Italic(true),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FF005F")),
		Survey:    lipgloss.NewStyle().Foreground(lipgloss.Color("#D7AF5F")),
	}
}

// stateChangedMsg signals that the orchestrator committed a new snapshot.
type stateChangedMsg struct{}

// sendResultMsg carries the outcome of a synchronous REST send.
type sendResultMsg struct {
	err error
}

// chatModel is the bubbletea model for the chat view.
type chatModel struct {
	orch    *session.Orchestrator
	sess    *chatws.Session
	input   textinput.Model
	spinner spinner.Model
	theme   chatTheme

	width    int
	sending  bool
	quitting bool
}

func newChatModel(orch *session.Orchestrator, sess *chatws.Session) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Focus()

	return chatModel{
		orch:    orch,
		sess:    sess,
		input:   ti,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		theme:   defaultChatTheme(),
		width:   80,
	}
}

func (m chatModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			return m.submit()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case stateChangedMsg:
		// Snapshot is re-read in View; nothing to do beyond repainting.
		return m, nil

	case sendResultMsg:
		// The snapshot already carries the user-visible error; the log keeps
		// the cause next to the request entries.
		m.sending = false
		if msg.err != nil {
			logger.Warn("synchronous send failed", "error", msg.err)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input line: through the socket when available,
// otherwise on the synchronous REST path.
func (m chatModel) submit() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" || m.sending {
		return m, nil
	}
	m.input.SetValue("")

	if m.sess != nil && m.sess.State() == chatws.StateConnected {
		if err := m.sess.SendChatMessage(content); err != nil {
			logger.Warn("socket send failed", "error", err)
		}
		return m, nil
	}

	m.sending = true
	orch := m.orch
	return m, func() tea.Msg {
		err := orch.SendMessage(context.Background(), content, nil)
		return sendResultMsg{err: err}
	}
}

func (m chatModel) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}

	snap := m.orch.Snapshot()
	var b strings.Builder

	if snap.Loading {
		b.WriteString(m.spinner.View() + " Loading conversation...\n")
	}

	for _, msg := range snap.Messages {
		b.WriteString(m.renderMessage(msg))
	}

	if snap.AssistantTyping {
		b.WriteString(m.spinner.View() + m.theme.Meta.Render(" assistant is typing...") + "\n")
	}
	if snap.Err != "" {
		b.WriteString(m.theme.Error.Render("! "+snap.Err) + "\n")
	}

	b.WriteString("\n" + m.input.View() + "\n")
	b.WriteString(m.theme.Meta.Render("enter to send · esc to leave") + "\n")

	return tea.NewView(b.String())
}

func (m chatModel) renderMessage(msg models.Message) string {
	var b strings.Builder

	switch msg.Role {
	case models.RoleUser:
		b.WriteString(m.theme.User.Render("You: "))
	default:
		b.WriteString(m.theme.Assistant.Render("Assistant: "))
	}

	content := msg.Content
	if msg.IsStreaming {
		content += "▌"
	}
	b.WriteString(content + "\n")

	if len(msg.SurveyData) > 0 {
		b.WriteString(m.renderSurvey(msg.SurveyData, "  "))
	}
	return b.String()
}

// renderSurvey prints survey questions inline, indenting nested sub-forms.
func (m chatModel) renderSurvey(questions []models.Question, indent string) string {
	var b strings.Builder
	for _, q := range questions {
		b.WriteString(indent + m.theme.Survey.Render("? "+q.Text) + "\n")
		if q.Subtitle != nil {
			b.WriteString(indent + "  " + m.theme.Meta.Render(*q.Subtitle) + "\n")
		}
		if q.Type == models.QuestionSubForm {
			b.WriteString(m.renderSurvey(q.SubQuestions, indent+"  "))
			continue
		}
		for _, opt := range q.Options {
			b.WriteString(indent + "  - " + opt.Label + "\n")
		}
	}
	return b.String()
}
