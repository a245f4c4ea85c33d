package common

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// InboxMsg wraps a message that arrived through an Inbox. The receiver
// handles Msg and re-issues Wait to keep draining.
type InboxMsg struct {
	Msg tea.Msg
}

// Inbox carries messages from adapter goroutines into the Bubble Tea loop.
// Live-subscription callbacks Post; the root model keeps one Wait pending.
type Inbox struct {
	ch   chan tea.Msg
	done chan struct{}
	once sync.Once
}

// NewInbox creates an inbox buffering up to size messages.
func NewInbox(size int) *Inbox {
	if size < 1 {
		size = 1
	}
	return &Inbox{ch: make(chan tea.Msg, size), done: make(chan struct{})}
}

// Post enqueues msg, blocking while the buffer is full. After Close it drops msg.
func (in *Inbox) Post(msg tea.Msg) {
	select {
	case <-in.done:
		return
	default:
	}
	select {
	case in.ch <- msg:
	case <-in.done:
	}
}

// Wait returns a command that delivers the next message as an InboxMsg.
// It returns nil once the inbox is closed.
func (in *Inbox) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-in.ch:
			return InboxMsg{Msg: msg}
		case <-in.done:
			return nil
		}
	}
}

// Close stops delivery. Safe to call more than once.
func (in *Inbox) Close() {
	in.once.Do(func() { close(in.done) })
}

// NoticeMsg asks the root to show a transient status line.
type NoticeMsg struct {
	Text string
	Err  error
}

// SignInRequestedMsg asks the root to open the sign-in prompt.
type SignInRequestedMsg struct {
	Reason string
}
