package domain

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestStartChatTurnReturnsPriorHistory(t *testing.T) {
	s := NewSession("s1")

	prior := s.StartChatTurn("Rickson Gracie", "first")
	if len(prior) != 0 {
		t.Fatalf("prior history = %d messages, want 0", len(prior))
	}
	s.AppendMessage(RoleAssistant, "oss")

	prior = s.StartChatTurn("Rickson Gracie", "second")
	if len(prior) != 2 {
		t.Fatalf("prior history = %d messages, want 2", len(prior))
	}
	if prior[0].Content != "first" || prior[1].Content != "oss" {
		t.Errorf("prior history = %+v", prior)
	}
}

func TestStartChatTurnResetsOnPersonaSwitch(t *testing.T) {
	s := NewSession("s1")

	s.StartChatTurn("Rickson Gracie", "hi")
	s.AppendMessage(RoleAssistant, "oss")

	prior := s.StartChatTurn("Helio Gracie", "hi again")
	if len(prior) != 0 {
		t.Errorf("prior history after persona switch = %d messages, want 0", len(prior))
	}
	history := s.History()
	if len(history) != 1 || history[0].Content != "hi again" {
		t.Errorf("history after persona switch = %+v", history)
	}
}

func TestHistoryReturnsCopy(t *testing.T) {
	s := NewSession("s1")
	s.AppendMessage(RoleUser, "hi")

	history := s.History()
	history[0].Content = "mutated"

	if got := s.History()[0].Content; got != "hi" {
		t.Errorf("history content = %q after mutating a returned copy", got)
	}
}

// Exercised under -race: a session is shared between HTTP handlers, a chat
// stream and the TTL sweeper.
func TestSessionConcurrentAccess(t *testing.T) {
	s := NewSession("s1")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.Touch()
				s.AppendMessage(RoleUser, fmt.Sprintf("msg %d/%d", n, j))
				s.SetDiagram("graph TD\nA --> B[sweep]")
				_ = s.History()
				_ = s.Diagram()
				_ = s.LastActive()
			}
		}(i)
	}
	wg.Wait()

	if got := len(s.History()); got != 4*200 {
		t.Errorf("history length = %d, want %d", got, 4*200)
	}
	if s.LastActive().IsZero() || s.LastActive().After(time.Now()) {
		t.Error("last-activity timestamp out of range")
	}
}
