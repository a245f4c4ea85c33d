package common

import (
	"testing"
	"time"
)

func TestInbox_DeliversInOrder(t *testing.T) {
	in := NewInbox(4)
	in.Post("a")
	in.Post("b")

	for _, want := range []string{"a", "b"} {
		msg := in.Wait()()
		got, ok := msg.(InboxMsg)
		if !ok || got.Msg != want {
			t.Fatalf("expected InboxMsg{%q}, got %#v", want, msg)
		}
	}
}

func TestInbox_CloseUnblocksWaitAndPost(t *testing.T) {
	in := NewInbox(1)
	in.Post("fill")

	posted := make(chan struct{})
	go func() {
		in.Post("blocked")
		close(posted)
	}()

	in.Close()
	in.Close()

	select {
	case <-posted:
	case <-time.After(time.Second):
		t.Fatalf("Post must return after Close")
	}

	// Drain the buffered message, then Wait returns nil.
	for range 3 {
		if msg := in.Wait()(); msg == nil {
			return
		}
	}
	t.Fatalf("expected Wait to return nil after close")
}
