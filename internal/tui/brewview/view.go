// Package brewview is the terminal front end of a guided session.
package brewview

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/musui/musui-server/internal/brew"
	"github.com/musui/musui-server/internal/model"
)

// TickInterval is the display refresh rate. Ticks only re-read the elapsed time.
const TickInterval = 100 * time.Millisecond

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C8A97E"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A"))
	timerStyle   = lipgloss.NewStyle().Bold(true).Padding(1, 4).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#7A9E7E"))
	activeField  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F2E8CF")).Underline(true)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).MarginTop(1)
	recordedMark = lipgloss.NewStyle().Foreground(lipgloss.Color("#7A9E7E")).Render("기록됨")
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

const (
	fieldMood = iota
	fieldMemo
)

// Model drives a brew.Session from key presses.
type Model struct {
	session *brew.Session
	total   int
	field   int
	mood    []rune
	memo    []rune
	width   int
}

// New wraps a session. total is the number of courses in the catalog.
func New(s *brew.Session, total int) Model {
	return Model{session: s, total: total}
}

// Archive returns the archive built when the session ended, or nil.
func (m Model) Archive() *model.Archive { return m.session.Result() }

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		if m.session.Ended() {
			return m, tea.Quit
		}
		return m, tick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.session.End()
			return m, tea.Quit
		}
		m = m.handleKey(msg)
		if m.session.Ended() {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) handleKey(k tea.KeyMsg) Model {
	s := m.session
	key := k.String()
	switch s.Step() {
	case brew.StepGuide:
		switch key {
		case "enter", "b":
			s.BeginBrew()
		case "q", "esc":
			s.Abandon()
		}
	case brew.StepBrew:
		switch key {
		case " ", "space":
			if s.Running() {
				s.Stop()
			} else {
				s.Start()
			}
		case "l":
			s.Lap()
		case "f", "enter":
			s.FinishCourse()
		case "e":
			s.End()
		}
	case brew.StepConfirmNext:
		switch key {
		case "w":
			if s.WriteNote() {
				m.field, m.mood, m.memo = fieldMood, nil, nil
			}
		case "s":
			s.Skip()
		case "n", "enter":
			s.NextCourse()
		case "e":
			s.End()
		}
	case brew.StepNote:
		m = m.editNote(k)
	}
	return m
}

func (m Model) editNote(k tea.KeyMsg) Model {
	target := &m.mood
	if m.field == fieldMemo {
		target = &m.memo
	}
	switch k.Type {
	case tea.KeyEsc:
		m.session.CancelNote()
	case tea.KeyEnter:
		m.session.SubmitNote(brew.NoteInput{
			Mood: strings.TrimSpace(string(m.mood)),
			Memo: strings.TrimSpace(string(m.memo)),
		})
	case tea.KeyTab, tea.KeyShiftTab:
		m.field = 1 - m.field
	case tea.KeyBackspace:
		if n := len(*target); n > 0 {
			*target = append([]rune(nil), (*target)[:n-1]...)
		}
	case tea.KeySpace:
		*target = append(append([]rune(nil), *target...), ' ')
	case tea.KeyRunes:
		*target = append(append([]rune(nil), *target...), k.Runes...)
	}
	return m
}

func (m Model) View() string {
	s := m.session
	if s.Ended() {
		return ""
	}
	c := s.Course()
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", titleStyle.Render(c.Title), subtleStyle.Render(fmt.Sprintf("%d/%d", s.CourseIndex()+1, m.total)))
	if c.Subtitle != "" {
		b.WriteString(subtleStyle.Render(c.Subtitle) + "\n")
	}
	b.WriteString("\n")

	switch s.Step() {
	case brew.StepGuide:
		b.WriteString(c.Guide + "\n")
		if c.SuggestedLapsHint != "" {
			b.WriteString(subtleStyle.Render(c.SuggestedLapsHint) + "\n")
		}
		b.WriteString(helpStyle.Render("enter 우리기 시작 · q 그만두기"))
	case brew.StepBrew:
		state := "멈춤"
		if s.Running() {
			state = "진행 중"
		}
		b.WriteString(timerStyle.Render(FormatClock(s.ElapsedSeconds())) + "  " + subtleStyle.Render(state) + "\n")
		b.WriteString(lapsLine(s.Laps()) + "\n")
		b.WriteString(helpStyle.Render("space 시작/정지 · l 랩 · f 완료 · e 세션 종료"))
	case brew.StepConfirmNext:
		b.WriteString(lapsLine(s.Laps()) + "\n")
		if s.CourseRecorded() {
			b.WriteString(recordedMark + "\n")
		}
		next := "n 다음 코스"
		if s.IsLastCourse() {
			next = "n 마치기"
		}
		b.WriteString(helpStyle.Render("w 노트 쓰기 · s 건너뛰기 · " + next + " · e 세션 종료"))
	case brew.StepNote:
		b.WriteString(m.fieldLine("기분", m.mood, fieldMood) + "\n")
		b.WriteString(m.fieldLine("메모", m.memo, fieldMemo) + "\n")
		b.WriteString(helpStyle.Render("tab 항목 이동 · enter 저장 · esc 취소"))
	}
	return b.String() + "\n"
}

func (m Model) fieldLine(label string, v []rune, field int) string {
	text := string(v)
	if m.field == field {
		text = activeField.Render(text + "_")
	}
	return fmt.Sprintf("%s: %s", label, text)
}

func lapsLine(laps []int) string {
	if len(laps) == 0 {
		return subtleStyle.Render("랩 없음")
	}
	parts := make([]string, len(laps))
	for i, l := range laps {
		parts[i] = fmt.Sprintf("%d. %s", i+1, FormatClock(l))
	}
	return strings.Join(parts, "  ")
}

// FormatClock renders whole seconds as mm:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
