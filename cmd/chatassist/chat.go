package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog/log"

	"github.com/Chan-con/chat-assistant/internal/brain"
	"github.com/Chan-con/chat-assistant/internal/model"
	"github.com/Chan-con/chat-assistant/internal/prompt"
	"github.com/Chan-con/chat-assistant/internal/sys"
	"github.com/Chan-con/chat-assistant/internal/timeline"
	"github.com/Chan-con/chat-assistant/internal/vault"
)

const splitStep = 0.05

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EE6FF8")).
			Bold(true)

	aiStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04D9FF")).
			Bold(true)

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	highlight = lipgloss.Color("#7D56F4")

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true).
			Italic(true)

	suggestionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Background(lipgloss.Color("#222222"))

	selectedSuggestionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#7D56F4")).
				Bold(true)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444"))

	confirmStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#FFD700")).
			Padding(0, 1)
)

var allCommands = []string{
	"/help", "/clear", "/copy", "/quote", "/edit", "/history", "/refresh", "/status", "/new", "/logout", "/exit",
}

var commandHelp = map[string]string{
	"/help":    "Show this list",
	"/clear":   "Clear the reply",
	"/copy":    "Copy the reply to the clipboard",
	"/quote":   "/quote <text>: ask about part of the reply",
	"/edit":    "/edit <text>: replace the reply by hand",
	"/history": "/history [word]: search past replies",
	"/refresh": "Reload the conversation thread",
	"/status":  "Backend and system snapshot",
	"/new":     "Start a new thread (the reply is kept)",
	"/logout":  "Forget stored credentials and reset the session",
	"/exit":    "Quit chatassist",
}

type sendDoneMsg struct {
	result brain.Result
	input  string
	err    error
}

type refreshDueMsg struct{}

type refreshDoneMsg struct {
	entries []timeline.Entry
	err     error
}

type newThreadMsg struct {
	err error
}

type configChangedMsg struct {
	cfg *sys.Config
}

type chatModel struct {
	ctx   context.Context
	app   *app
	brain *brain.Brain

	textarea textarea.Model
	reply    viewport.Model
	chat     viewport.Model
	spinner  spinner.Model

	width  int
	height int
	ratio  float64

	entries []timeline.Entry
	notes   []string

	// in-flight send
	pending      bool
	pendingInput string
	pendingCmd   prompt.Command
	started      time.Time

	notice    string
	noticeErr bool

	suggestions   []string
	suggestionIdx int
}

func initialModel(ctx context.Context, a *app, b *brain.Brain) *chatModel {
	if ctx == nil {
		ctx = context.Background()
	}

	ta := textarea.New()
	ta.Placeholder = "返信したい内容を入力 (Enter で送信, Ctrl+J で改行, / でコマンド)"
	ta.Focus()

	ta.Prompt = "┃ "
	ta.CharLimit = 4000

	ta.SetWidth(60)
	ta.SetHeight(3)

	// Remove cursor line styling
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("ctrl+j"))

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(highlight)

	return &chatModel{
		ctx:      ctx,
		app:      a,
		brain:    b,
		textarea: ta,
		reply:    viewport.New(30, 15),
		chat:     viewport.New(30, 15),
		spinner:  sp,
		ratio:    sys.ClampSplitRatio(a.cfg.UI.SplitRatio),
	}
}

func (m *chatModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

func (m *chatModel) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

// refreshTimeline rebuilds both panes from the brain without touching the backend.
func (m *chatModel) refreshTimeline() {
	m.entries = m.brain.Timeline()
	m.render()
}

func (m *chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sendDoneMsg:
		return m, m.finishSend(msg)

	case refreshDueMsg:
		b, ctx := m.brain, m.ctx
		return m, func() tea.Msg {
			entries, err := b.Refresh(ctx)
			return refreshDoneMsg{entries: entries, err: err}
		}

	case refreshDoneMsg:
		if msg.err != nil {
			log.Warn().Err(msg.err).Msg("refresh")
			m.setNotice(brain.Describe(msg.err), true)
		}
		m.entries = msg.entries
		m.render()
		return m, nil

	case configChangedMsg:
		m.app.cfg = msg.cfg
		m.brain.SetSystem(prompt.NewSystem(msg.cfg))
		m.ratio = msg.cfg.UI.SplitRatio
		m.layout()
		return m, nil

	case newThreadMsg:
		if msg.err != nil {
			m.setNotice(brain.Describe(msg.err), true)
		} else {
			m.app.rememberAssistant(m.brain)
			m.setNotice("新しいスレッドを開始しました。", false)
		}
		m.refreshTimeline()
		return m, nil

	case tea.KeyMsg:
		if _, ok := m.brain.Pending(); ok && !m.pending {
			return m, m.handleConfirmKey(msg)
		}

		// Suggestion navigation
		if len(m.suggestions) > 0 {
			switch msg.String() {
			case "tab", "down":
				m.suggestionIdx = (m.suggestionIdx + 1) % len(m.suggestions)
				return m, nil
			case "shift+tab", "up":
				m.suggestionIdx = (m.suggestionIdx - 1 + len(m.suggestions)) % len(m.suggestions)
				return m, nil
			case "enter":
				if m.applySuggestion() {
					return m, nil
				}
			}
		}

		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+left":
			m.resize(-splitStep)
			return m, nil
		case "ctrl+right":
			m.resize(splitStep)
			return m, nil
		case "ctrl+y":
			m.copyReply()
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.chat, cmd = m.chat.Update(msg)
			return m, cmd
		case "enter":
			v := strings.TrimSpace(m.textarea.Value())
			if v == "" {
				return m, nil
			}
			if strings.HasPrefix(v, "/") {
				return m.handleSlashCommand(v)
			}
			if m.pending {
				m.setNotice(brain.Describe(brain.ErrBusy), true)
				return m, nil
			}
			m.textarea.Reset()
			m.suggestions = nil
			return m, m.startSend(v)
		}
	}

	var tiCmd tea.Cmd
	m.textarea, tiCmd = m.textarea.Update(msg)
	cmds = append(cmds, tiCmd)
	if _, ok := msg.(tea.KeyMsg); ok {
		m.updateSuggestions(m.textarea.Value())
	}
	return m, tea.Batch(cmds...)
}

func (m *chatModel) startSend(text string) tea.Cmd {
	m.pending = true
	m.pendingInput = text
	m.pendingCmd = prompt.Classify(text, m.brain.Document())
	m.started = time.Now()
	m.notes = nil
	m.setNotice("", false)
	m.render()

	b, ctx := m.brain, m.ctx
	return func() tea.Msg {
		res, err := b.Send(ctx, text)
		return sendDoneMsg{result: res, input: text, err: err}
	}
}

func (m *chatModel) finishSend(msg sendDoneMsg) tea.Cmd {
	m.pending = false
	m.pendingInput = ""
	if msg.err != nil {
		log.Warn().Err(msg.err).Msg("send")
		m.setNotice(brain.Describe(msg.err), true)
		// Give the text back so it can be resent.
		if m.textarea.Value() == "" {
			m.textarea.SetValue(msg.input)
		}
		m.render()
		return nil
	}

	if msg.result.Preview != nil {
		m.setNotice("編集内容を確認してください。", false)
	}
	m.app.rememberAssistant(m.brain)
	m.refreshTimeline()
	return m.scheduleRefresh()
}

func (m *chatModel) scheduleRefresh() tea.Cmd {
	delay := m.app.cfg.Session.RefreshDelay
	if delay <= 0 {
		return func() tea.Msg { return refreshDueMsg{} }
	}
	return tea.Tick(delay, func(time.Time) tea.Msg { return refreshDueMsg{} })
}

func (m *chatModel) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y", "enter":
		if _, err := m.brain.Confirm(); err != nil {
			m.setNotice(brain.Describe(err), true)
		} else {
			m.setNotice("編集を適用しました。", false)
		}
	case "n", "N", "esc":
		if err := m.brain.Cancel(); err != nil {
			m.setNotice(brain.Describe(err), true)
		} else {
			m.setNotice("編集をキャンセルしました。", false)
		}
	case "ctrl+c":
		return tea.Quit
	default:
		return nil
	}
	m.refreshTimeline()
	return nil
}

func (m *chatModel) handleSlashCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	arg := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))
	m.textarea.Reset()
	m.suggestions = nil
	m.notes = nil

	switch parts[0] {
	case "/help":
		m.notes = append(m.notes, systemStyle.Render(" COMMANDS "))
		for _, c := range allCommands {
			m.notes = append(m.notes, helpStyle.Render(fmt.Sprintf("• %-9s %s", c, commandHelp[c])))
		}
		m.notes = append(m.notes, helpStyle.Render("• Ctrl+←/→ resize panes, Ctrl+Y copy, PgUp/PgDn scroll"))
	case "/clear":
		if err := m.brain.ClearDocument(); err != nil {
			m.setNotice(brain.Describe(err), true)
			break
		}
		m.setNotice("返信をクリアしました。", false)
	case "/copy":
		m.copyReply()
	case "/quote":
		q := brain.QuoteDraft(arg)
		if q == "" {
			m.setNotice("引用するテキストを指定してください。", true)
			break
		}
		m.textarea.SetValue(q)
		m.textarea.CursorEnd()
	case "/edit":
		if err := m.brain.SetDocument(arg); err != nil {
			m.setNotice(brain.Describe(err), true)
			break
		}
		m.setNotice("返信を更新しました。", false)
	case "/history":
		past, err := m.app.store.Recall(arg, 5)
		if err != nil {
			m.setNotice(err.Error(), true)
			break
		}
		m.notes = append(m.notes, systemStyle.Render(" HISTORY "))
		if len(past) == 0 {
			m.notes = append(m.notes, helpStyle.Render("該当する返信はありません。"))
		}
		for _, p := range past {
			m.notes = append(m.notes, tagStyle.Render("• ")+truncate(firstLine(p), m.chat.Width-4))
		}
	case "/refresh":
		m.render()
		return m, func() tea.Msg { return refreshDueMsg{} }
	case "/status":
		m.notes = append(m.notes, systemStyle.Render(" STATUS "))
		m.notes = append(m.notes, helpStyle.Render(fmt.Sprintf("Provider: %s (%s)", m.app.cfg.Model.Provider, displayModelName(m.app.cfg.Model.Provider, m.app.cfg.Model.Name))))
		m.notes = append(m.notes, helpStyle.Render("Thread: "+valueOr(m.brain.Session().ThreadID(), "-")))
		m.notes = append(m.notes, helpStyle.Render("Assistant: "+valueOr(m.brain.Session().AssistantID(), "-")))
		if snap, err := sys.NewMonitor().GetSnapshot(); err == nil {
			m.notes = append(m.notes, helpStyle.Render(snap.Summary()))
		}
	case "/new":
		if m.pending {
			m.setNotice(brain.Describe(brain.ErrBusy), true)
			break
		}
		b, ctx := m.brain, m.ctx
		m.render()
		return m, func() tea.Msg { return newThreadMsg{err: b.NewThread(ctx)} }
	case "/logout":
		if m.pending {
			m.setNotice(brain.Describe(brain.ErrBusy), true)
			break
		}
		for _, k := range vault.Keys {
			if err := m.app.vault.Delete(k); err != nil {
				m.setNotice(err.Error(), true)
				m.render()
				return m, nil
			}
		}
		err := m.app.reconnect(m.brain)
		if err != nil && !isMissingCredentials(err) {
			m.setNotice(err.Error(), true)
		} else {
			m.setNotice("認証情報を削除しました。chatassist auth で再設定してください。", false)
		}
		m.entries = nil
	case "/exit":
		return m, tea.Quit
	default:
		m.setNotice("Unknown command: "+parts[0], true)
	}

	m.render()
	return m, nil
}

func (m *chatModel) copyReply() {
	doc := m.brain.Document()
	if doc == "" {
		m.setNotice("コピーする返信がありません。", true)
		return
	}
	if err := clipboard.WriteAll(doc); err != nil {
		m.setNotice("クリップボードにコピーできませんでした: "+err.Error(), true)
		return
	}
	m.setNotice("返信をコピーしました。", false)
}

func (m *chatModel) resize(delta float64) {
	r := sys.ClampSplitRatio(m.ratio + delta)
	if r == m.ratio {
		return
	}
	m.ratio = r
	m.app.cfg.UI.SplitRatio = r
	if err := m.app.cm.Set("ui.split_ratio", r); err != nil {
		log.Warn().Err(err).Msg("saving split ratio")
	}
	m.layout()
}

func (m *chatModel) updateSuggestions(val string) {
	m.suggestions = nil
	m.suggestionIdx = 0

	if !strings.HasPrefix(val, "/") || strings.ContainsAny(val, " \n") {
		return
	}
	for _, cmd := range allCommands {
		if strings.HasPrefix(cmd, val) && cmd != val {
			m.suggestions = append(m.suggestions, cmd)
		}
	}
	sort.Strings(m.suggestions)
}

func (m *chatModel) applySuggestion() bool {
	if len(m.suggestions) == 0 {
		return false
	}
	m.textarea.SetValue(m.suggestions[m.suggestionIdx] + " ")
	m.textarea.CursorEnd()
	m.suggestions = nil
	return true
}

// layout sizes both panes from the window and the split ratio.
func (m *chatModel) layout() {
	if m.width == 0 {
		return
	}
	replyW := int(float64(m.width) * m.ratio)
	chatW := m.width - replyW
	bodyH := m.height - m.textarea.Height() - 5
	if bodyH < 3 {
		bodyH = 3
	}

	m.reply.Width, m.reply.Height = max(replyW-2, 1), bodyH
	m.chat.Width, m.chat.Height = max(chatW-2, 1), bodyH
	m.textarea.SetWidth(m.width - 2)
	m.render()
}

func (m *chatModel) render() {
	doc := m.brain.Document()
	if doc == "" {
		m.reply.SetContent(helpStyle.Render("返信はまだありません。"))
	} else {
		m.reply.SetContent(lipgloss.NewStyle().Width(m.reply.Width).Render(doc))
	}

	if p, ok := m.brain.Pending(); ok && !m.pending {
		m.chat.SetContent(m.renderConfirm(p.OriginalText, p.EditedText, p.Instruction))
		m.chat.GotoTop()
		return
	}

	var blocks []string
	for _, e := range m.entries {
		blocks = append(blocks, m.renderEntry(e))
	}
	if m.pending {
		blocks = append(blocks, userStyle.Render("あなた")+" "+helpStyle.Render("送信中")+"\n"+wrap(m.pendingInput, m.chat.Width))
	}
	blocks = append(blocks, m.notes...)
	if len(blocks) == 0 {
		blocks = append(blocks, lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("chatassist"),
			helpStyle.Render("返信したい内容を書くと、丁寧な返信を提案します。"),
			"",
			"Type "+systemStyle.Render("/help")+" to see available commands.",
		))
	}
	m.chat.SetContent(strings.Join(blocks, "\n\n"))
	m.chat.GotoBottom()
}

func (m *chatModel) renderEntry(e timeline.Entry) string {
	label := aiStyle.Render("AI")
	if e.Role == model.RoleUser {
		label = userStyle.Render("あなた")
	}
	meta := time.UnixMilli(e.TimestampMs).Format("15:04")
	if e.IsCommand {
		meta += " " + tagStyle.Render("返信更新")
	}
	return label + " " + helpStyle.Render(meta) + "\n" + wrap(e.Content, m.chat.Width)
}

func (m *chatModel) renderConfirm(original, edited string, cmd prompt.Command) string {
	w := max(m.chat.Width-4, 10)
	body := lipgloss.JoinVertical(lipgloss.Left,
		systemStyle.Render(" 編集の確認 "),
		helpStyle.Render("指示: "+truncate(cmd.Content, w-4)),
		"",
		tagStyle.Render("変更前"),
		wrap(original, w),
		"",
		tagStyle.Render("変更後"),
		wrap(edited, w),
		"",
		aiStyle.Render("[y] 適用  [n] キャンセル"),
	)
	return confirmStyle.Width(w).Render(body)
}

func (m *chatModel) View() string {
	header := titleStyle.Render(" chatassist ") + " " + helpStyle.Render("v"+Version+" · "+m.app.cfg.Model.Provider+" · "+displayModelName(m.app.cfg.Model.Provider, m.app.cfg.Model.Name))

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		paneStyle.Render(m.reply.View()),
		paneStyle.Render(m.chat.View()),
	)

	status := ""
	switch {
	case m.pending:
		status = m.spinner.View() + " " + brain.Progress(m.pendingCmd, time.Since(m.started))
	case m.notice != "" && m.noticeErr:
		status = errorStyle.Render(truncate(m.notice, m.width-2))
	case m.notice != "":
		status = helpStyle.Render(truncate(m.notice, m.width-2))
	}

	view := lipgloss.JoinVertical(lipgloss.Left, header, panes, status, m.textarea.View())
	if suggs := m.renderSuggestions(); suggs != "" {
		view += "\n" + suggs
	}
	return view + "\n"
}

func (m *chatModel) renderSuggestions() string {
	if len(m.suggestions) == 0 {
		return ""
	}

	width := 50
	if m.width-10 < width {
		width = max(m.width-4, 10)
	}

	var rows []string
	for i, s := range m.suggestions {
		style := suggestionStyle
		if i == m.suggestionIdx {
			style = selectedSuggestionStyle
		}
		help := commandHelp[s]
		spacing := max(width-runewidth.StringWidth(s)-runewidth.StringWidth(help)-2, 1)
		row := " " + s + strings.Repeat(" ", spacing) + help + " "
		rows = append(rows, style.Width(width).Render(truncate(row, width)))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(highlight).
		MarginLeft(2).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// truncate cuts s to w terminal cells; Japanese text is two cells per rune.
func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	return runewidth.Truncate(s, w, "…")
}

func wrap(s string, w int) string {
	return lipgloss.NewStyle().Width(max(w, 1)).Render(s)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
