package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/stage-engine/pkg/chat"
	"github.com/jwebster45206/stage-engine/pkg/conditioning"
)

const (
	NarratorName    = "Narrator"
	PlaceHolderText = "Type a message, or /help for commands..."
)

type entryKind int

const (
	entryNarration entryKind = iota
	entryPlayer
	entryNPC
	entrySystem
	entryError
)

// entry is one block in the scrollback.
type entry struct {
	kind    entryKind
	speaker string
	text    string
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	api          *apiClient
	session      *sessionView
	log          []entry
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// PC selection state
	showPCModal bool
	pcs         []pcSummary
	selectedPC  int
	loadingPCs  bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type pcsLoadedMsg struct {
	pcs []pcSummary
	err error
}

type sessionCreatedMsg struct {
	view *sessionView
	err  error
}

type sessionMsg struct {
	view *sessionView
	err  error
}

// resultMsg carries the scrollback produced by one API call.
type resultMsg struct {
	entries []entry
	err     error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	lockedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Strikethrough(true)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

const helpText = `Commands:
• /events - List events
• /subject <name> - Add a subject
• /event <event_id> <target> - Start an event
• /choose <choice_id> [success|failure] - Take a choice
• /next - Follow the step's next link
• /chat, /endchat - Open or close the chat phase
• /actions - List conditioning actions
• /act <action_id> [success|failure] - Use an action
• /regen, /swipe - Replace the last reply
• /summary - Record a summary of the chat
• /backstory <name> - Write a servant backstory
• /end - End the event
• /copy - Copy the last reply
• Ctrl+C - Quit`

func NewConsoleUI(cfg *ConsoleConfig, api *apiClient) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:       cfg,
		api:          api,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
		showPCModal:  true,
		loadingPCs:   true,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.loadPCs()
}

func (m *ConsoleUI) resize() {
	chatWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - chatWidth - 6
	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showPCModal {
		return m.updatePCModal(msg)
	}
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.writeChatContent()
		m.metaViewport.SetContent(writeMetadata(m.session, m.metaViewport.Width))

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()

			var cmd tea.Cmd
			if strings.HasPrefix(input, "/") {
				cmd = m.handleCommand(input)
			} else {
				m.log = append(m.log, entry{kind: entryPlayer, speaker: m.playerName(), text: input})
				cmd = m.sendMessage(input)
			}
			if cmd == nil {
				m.writeChatContent()
				return m, nil
			}
			m.loading = true
			m.progressTick = 0
			m.writeChatContent()
			return m, tea.Batch(cmd, progressTick())
		}

	case resultMsg:
		m.loading = false
		m.log = append(m.log, msg.entries...)
		if msg.err != nil {
			m.log = append(m.log, entry{kind: entryError, text: "Error: " + msg.err.Error()})
		}
		m.writeChatContent()
		return m, m.refreshSession()

	case sessionMsg:
		if msg.err == nil && msg.view != nil {
			m.session = msg.view
			m.metaViewport.SetContent(writeMetadata(m.session, m.metaViewport.Width))
		}

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m ConsoleUI) playerName() string {
	if m.session != nil && m.session.State != nil {
		return m.session.State.PCName()
	}
	return "You"
}

// writeChatContent rebuilds the scrollback for the current viewport width.
func (m *ConsoleUI) writeChatContent() {
	width := m.chatViewport.Width - 6
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("STAGE ENGINE") + "\n\n")
	content.WriteString("Start an event with /event, or type /help.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	for _, e := range m.log {
		content.WriteString(formatEntry(e, width) + "\n\n")
	}
	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func formatEntry(e entry, width int) string {
	switch e.kind {
	case entryPlayer:
		return userStyle.Render(e.speaker+": ") + wordwrap.String(e.text, width-len(e.speaker)-2)
	case entryNPC:
		return speakerStyle.Render(e.speaker+":") + " " + wordwrap.String(e.text, width-len(e.speaker)-2)
	case entrySystem:
		return systemStyle.Render(wordwrap.String(e.text, width))
	case entryError:
		return errorStyle.Render(wordwrap.String(e.text, width))
	default:
		speaker := e.speaker
		if speaker == "" {
			speaker = NarratorName
		}
		return narratorStyle.Render(speaker+": ") + wordwrap.String(e.text, width-len(speaker)-2)
	}
}

func writeMetadata(view *sessionView, width int) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("SESSION") + "\n\n")
	if view == nil || view.State == nil {
		content.WriteString("No session\n")
		return content.String()
	}
	gs := view.State

	content.WriteString("ID:\n" + gs.ID.String()[:8] + "...\n\n")
	content.WriteString("Player:\n" + gs.PCName() + "\n\n")

	content.WriteString("Subjects:\n")
	if len(gs.Subjects) == 0 {
		content.WriteString("None\n")
	}
	names := make([]string, 0, len(gs.Subjects))
	for name := range gs.Subjects {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := gs.Subjects[name]
		if s.IsServant() {
			content.WriteString(fmt.Sprintf("• %s (servant) aff %d obd %d\n", s.Name, s.Affection, s.Obedience))
		} else {
			content.WriteString(fmt.Sprintf("• %s (%s) cond %d\n", s.Name, s.Status, s.Conditioning))
		}
	}

	if items := gs.Inventory.Items(); len(items) > 0 {
		content.WriteString("\nInventory:\n")
		for _, item := range items {
			content.WriteString(fmt.Sprintf("• %s x%d\n", item, gs.Inventory[item]))
		}
	}

	if ae := view.ActiveEvent; ae != nil {
		content.WriteString("\nEvent:\n")
		content.WriteString(fmt.Sprintf("%s → %s\n", ae.DefinitionID, ae.Target))
		content.WriteString("Step: " + ae.CurrentStepID + "\n")
		if ae.Strategy != "" {
			content.WriteString("Strategy: " + ae.Strategy + "\n")
		}
		if ae.ChatPhaseActive {
			end := "not yet"
			if view.CanEndChat {
				end = "ready"
			}
			content.WriteString(fmt.Sprintf("Chat: %d replies (%s)\n", ae.ChatMessageCount, end))
		}
		if step := view.Step; step != nil && len(step.Choices) > 0 {
			content.WriteString("\nChoices:\n")
			for _, c := range step.Choices {
				line := fmt.Sprintf("• %s: %s", c.ID, c.Label)
				if c.RequiresItem != "" {
					line += " [" + c.RequiresItem + "]"
				}
				content.WriteString(wordwrap.String(line, width) + "\n")
			}
		}
	}

	content.WriteString("\nType /help for commands\n")
	return content.String()
}

func describeActions(resp *actionsResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Conditioning %d. Actions:", resp.Conditioning)
	for _, av := range resp.Actions {
		b.WriteString("\n")
		line := fmt.Sprintf("%s (%s)", av.Action.ID, av.Action.Label)
		if av.Locked {
			b.WriteString(lockedStyle.Render(line) + " " + av.LockReason)
			continue
		}
		b.WriteString(line)
	}
	return b.String()
}

func describeResult(res *conditioning.Result) string {
	outcome := "succeeds"
	if !res.Success {
		outcome = "fails"
	}
	text := fmt.Sprintf("%s %s (%+d, now %d).", res.ActionID, outcome, res.Delta, res.NewConditioning)
	if res.ThresholdCrossed != "" {
		text += fmt.Sprintf(" Threshold reached: %s.", res.ThresholdCrossed)
	}
	return text
}

// handleCommand returns the command to run, or nil when the input was
// answered locally.
func (m *ConsoleUI) handleCommand(input string) tea.Cmd {
	fields := strings.Fields(input)
	name := strings.ToLower(fields[0])
	args := fields[1:]
	id := m.session.State.ID
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}
	note := func(text string) {
		m.log = append(m.log, entry{kind: entrySystem, text: text})
	}

	switch name {
	case "/help":
		note(helpText)
		return nil

	case "/copy":
		for i := len(m.log) - 1; i >= 0; i-- {
			if m.log[i].kind == entryNPC {
				if err := clipboard.WriteAll(m.log[i].text); err != nil {
					m.log = append(m.log, entry{kind: entryError, text: "Copy failed: " + err.Error()})
				} else {
					note("Copied the last reply.")
				}
				return nil
			}
		}
		note("Nothing to copy.")
		return nil

	case "/events":
		return m.run(func() ([]entry, error) {
			events, err := m.api.listEvents()
			if err != nil {
				return nil, err
			}
			lines := make([]string, 0, len(events))
			for _, e := range events {
				lines = append(lines, fmt.Sprintf("• %s: %s", e.ID, e.Name))
			}
			return []entry{{kind: entrySystem, text: "Events:\n" + strings.Join(lines, "\n")}}, nil
		})

	case "/subject":
		subject := strings.Join(args, " ")
		if subject == "" {
			note("Usage: /subject <name>")
			return nil
		}
		return m.run(func() ([]entry, error) {
			subj, err := m.api.addSubject(id, subject)
			if err != nil {
				return nil, err
			}
			return []entry{{kind: entrySystem, text: fmt.Sprintf("%s added (%s).", subj.Name, subj.Status)}}, nil
		})

	case "/event":
		if len(args) < 2 {
			note("Usage: /event <event_id> <target>")
			return nil
		}
		eventID, target := args[0], strings.Join(args[1:], " ")
		return m.run(func() ([]entry, error) {
			resp, err := m.api.startEvent(id, eventID, target)
			return stepEntries(resp), err
		})

	case "/choose", "/next":
		choice, force := arg(0), arg(1)
		if name == "/next" {
			choice, force = "", arg(0)
		}
		return m.run(func() ([]entry, error) {
			resp, err := m.api.advance(id, choice, force)
			return stepEntries(resp), err
		})

	case "/chat", "/endchat":
		action := "start"
		if name == "/endchat" {
			action = "end"
		}
		return m.run(func() ([]entry, error) {
			if err := m.api.chatPhase(id, action); err != nil {
				return nil, err
			}
			return []entry{{kind: entrySystem, text: "Chat phase " + action + "ed."}}, nil
		})

	case "/actions":
		return m.run(func() ([]entry, error) {
			resp, err := m.api.actions(id)
			if err != nil {
				return nil, err
			}
			return []entry{{kind: entrySystem, text: describeActions(resp)}}, nil
		})

	case "/act":
		if len(args) == 0 {
			note("Usage: /act <action_id> [success|failure]")
			return nil
		}
		return m.run(func() ([]entry, error) {
			res, err := m.api.execute(id, args[0], arg(1))
			if err != nil {
				return nil, err
			}
			return []entry{
				{kind: entryNarration, text: res.Message},
				{kind: entrySystem, text: describeResult(res)},
			}, nil
		})

	case "/regen", "/swipe":
		path := "/regenerate"
		if name == "/swipe" {
			path = "/swipe"
		}
		return m.run(func() ([]entry, error) {
			resp, err := m.api.chatCall(id, path, nil)
			if err != nil {
				return nil, err
			}
			return []entry{replyEntry(resp.Message)}, nil
		})

	case "/summary":
		return m.run(func() ([]entry, error) {
			summary, err := m.api.summarize(id)
			return []entry{{kind: entrySystem, text: "Summary: " + summary}}, err
		})

	case "/backstory":
		subject := strings.Join(args, " ")
		if subject == "" {
			note("Usage: /backstory <name>")
			return nil
		}
		return m.run(func() ([]entry, error) {
			text, err := m.api.backstory(id, subject)
			return []entry{{kind: entryNarration, text: text}}, err
		})

	case "/end":
		return m.run(func() ([]entry, error) {
			return []entry{{kind: entrySystem, text: "Event ended."}}, m.api.endEvent(id)
		})

	default:
		note("Unknown command. Type /help for commands.")
		return nil
	}
}

// run wraps an API call as a tea.Cmd. Entries are dropped on error.
func (m ConsoleUI) run(fn func() ([]entry, error)) tea.Cmd {
	return func() tea.Msg {
		entries, err := fn()
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{entries: entries}
	}
}

func stepEntries(resp *eventResponse) []entry {
	if resp == nil || resp.Step == nil {
		return nil
	}
	out := []entry{{kind: entryNarration, speaker: resp.Step.Speaker, text: resp.Step.Text}}
	if resp.Event != nil && resp.Event.LastSkillCheck != nil {
		out = append(out, entry{kind: entrySystem, text: "Skill check: " + resp.Event.LastSkillCheck.String()})
	}
	if resp.Event != nil && resp.Event.Finished {
		out = append(out, entry{kind: entrySystem, text: "The event is over. Use /end to close it."})
	}
	return out
}

func replyEntry(msg *chat.Message) entry {
	if msg == nil {
		return entry{kind: entryError, text: "No reply."}
	}
	if msg.Role == chat.RoleSystem {
		return entry{kind: entrySystem, text: msg.Text}
	}
	return entry{kind: entryNPC, speaker: msg.Sender, text: msg.Text}
}

func (m ConsoleUI) sendMessage(text string) tea.Cmd {
	id := m.session.State.ID
	return m.run(func() ([]entry, error) {
		resp, err := m.api.sendMessage(id, text)
		if err != nil {
			return nil, err
		}
		return []entry{replyEntry(resp.Message)}, nil
	})
}

func (m ConsoleUI) refreshSession() tea.Cmd {
	id := m.session.State.ID
	return func() tea.Msg {
		view, err := m.api.getSession(id)
		return sessionMsg{view, err}
	}
}

func (m ConsoleUI) loadPCs() tea.Cmd {
	return func() tea.Msg {
		pcs, err := m.api.listPCs()
		return pcsLoadedMsg{pcs, err}
	}
}

func (m ConsoleUI) createSession(pcID string) tea.Cmd {
	return func() tea.Msg {
		view, err := m.api.createSession(pcID)
		return sessionCreatedMsg{view, err}
	}
}

func (m ConsoleUI) updatePCModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case pcsLoadedMsg:
		m.loadingPCs = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			// the empty ID asks the API for its default character
			m.pcs = append([]pcSummary{{Name: "Default character"}}, msg.pcs...)
		}

	case sessionCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.session = msg.view
		m.showPCModal = false
		if m.width > 0 && m.height > 0 {
			m.resize()
		}
		m.writeChatContent()
		m.metaViewport.SetContent(writeMetadata(m.session, m.metaViewport.Width))
		m.textarea.Focus()
		m.ready = true
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.loadingPCs || m.err != nil || m.loading {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.selectedPC > 0 {
				m.selectedPC--
			}
		case tea.KeyDown:
			if m.selectedPC < len(m.pcs)-1 {
				m.selectedPC++
			}
		case tea.KeyEnter:
			if len(m.pcs) > 0 {
				m.loading = true
				return m, m.createSession(m.pcs[m.selectedPC].ID)
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Your game state is saved on the server.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderPCModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	switch {
	case m.loadingPCs:
		content.WriteString(modalTitleStyle.Render("Loading Characters..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Please wait..."))
	case m.err != nil:
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(m.err.Error()))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	case m.loading:
		content.WriteString(modalTitleStyle.Render("Creating Session..."))
	default:
		content.WriteString(modalTitleStyle.Render("Choose Your Character"))
		content.WriteString("\n\n")
		for i, pc := range m.pcs {
			if i == m.selectedPC {
				content.WriteString(modalSelectedItemStyle.Render("▶ " + pc.Name))
			} else {
				content.WriteString(modalItemStyle.Render("  " + pc.Name))
			}
			content.WriteString("\n")
		}
		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showPCModal {
		return m.renderPCModal()
	}
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)
	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
