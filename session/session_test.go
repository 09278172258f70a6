package session_test

import (
	"sync"
	"testing"

	"github.com/netop-tools/ixc/core/protocol"
	"github.com/netop-tools/ixc/session"
)

func TestNew(t *testing.T) {
	s := session.New("gpt-5-mini")

	if s.ID() == "" {
		t.Error("session ID should not be empty")
	}
	if s.Len() != 0 {
		t.Errorf("new session should have 0 turns, got %d", s.Len())
	}
	if s.Model() != "gpt-5-mini" {
		t.Errorf("got model %q, want %q", s.Model(), "gpt-5-mini")
	}
}

func TestSession_ID_Unique(t *testing.T) {
	s1 := session.New("m")
	s2 := session.New("m")

	if s1.ID() == s2.ID() {
		t.Errorf("two sessions should have different IDs, both got %q", s1.ID())
	}
}

func TestSession_Append_And_Turns(t *testing.T) {
	s := session.New("m")

	s.Append(protocol.NewTurn(protocol.RoleOperator, "what is the uptime?"))
	s.Append(protocol.NewTurn(protocol.RoleAssistant, `{"command": ["show version"]}`))

	turns := s.Turns()
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(turns))
	}
	if turns[0].Role != protocol.RoleOperator {
		t.Errorf("got role %q, want %q", turns[0].Role, protocol.RoleOperator)
	}
	if turns[1].Payload != `{"command": ["show version"]}` {
		t.Errorf("unexpected payload %q", turns[1].Payload)
	}
}

func TestSession_Turns_DefensiveCopy(t *testing.T) {
	s := session.New("m")
	s.Append(protocol.NewTurn(protocol.RoleOperator, "original"))

	turns := s.Turns()
	turns[0].Payload = "mutated"

	if s.Turns()[0].Payload != "original" {
		t.Error("mutating the returned slice leaked into session history")
	}
}

func TestSession_Reset(t *testing.T) {
	s := session.New("gpt-5-mini")
	s.Append(protocol.NewTurn(protocol.RoleOperator, "hello"))
	s.IncrementDepth()
	s.AddUsage(120, 45)
	s.SetModel("gpt-5")

	before := s.Usage()
	s.Reset()

	if s.Len() != 0 {
		t.Errorf("history length after reset = %d, want 0", s.Len())
	}
	if s.Depth() != 0 {
		t.Errorf("depth after reset = %d, want 0", s.Depth())
	}
	if s.Usage() != before {
		t.Errorf("usage changed across reset: got %+v, want %+v", s.Usage(), before)
	}
	if s.Model() != "gpt-5" {
		t.Errorf("model selection lost across reset: got %q, want %q", s.Model(), "gpt-5")
	}
}

func TestSession_AddUsage_Accumulates(t *testing.T) {
	s := session.New("m")

	s.AddUsage(100, 20)
	s.AddUsage(50, 5)

	u := s.Usage()
	if u.InputTokens != 150 || u.OutputTokens != 25 {
		t.Errorf("got usage %+v, want input 150 output 25", u)
	}
	if u.Total() != 175 {
		t.Errorf("got total %d, want 175", u.Total())
	}
}

func TestSession_ConcurrentAppend(t *testing.T) {
	s := session.New("m")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Append(protocol.NewTurn(protocol.RoleDevice, "output"))
		}()
	}
	wg.Wait()

	if s.Len() != 50 {
		t.Errorf("got %d turns, want 50", s.Len())
	}
}
