package memory_test

import (
	"testing"

	"github.com/netop-tools/ixc/core/protocol"
	"github.com/netop-tools/ixc/memory"
)

// lengthCounter charges one token per message character.
type lengthCounter struct{}

func (lengthCounter) ContextTokens(msgs []protocol.Message) int {
	n := 0
	for _, m := range msgs {
		n += len(m.Content)
	}
	return n
}

func turn(role protocol.Role, payload string) protocol.Turn {
	return protocol.NewTurn(role, payload)
}

func TestComposer_SystemFirst(t *testing.T) {
	c := memory.NewComposer(lengthCounter{}, 0)

	msgs := c.Compose("developer prompt", []protocol.Turn{
		turn(protocol.RoleOperator, "question"),
		turn(protocol.RoleAssistant, `{"answer": "reply"}`),
	})

	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	if msgs[0].Role != protocol.WireSystem || msgs[0].Content != "developer prompt" {
		t.Errorf("first message = %+v, want system prompt", msgs[0])
	}
	if msgs[1].Role != protocol.WireUser {
		t.Errorf("operator turn mapped to %q, want %q", msgs[1].Role, protocol.WireUser)
	}
	if msgs[2].Role != protocol.WireAssistant {
		t.Errorf("assistant turn mapped to %q, want %q", msgs[2].Role, protocol.WireAssistant)
	}
}

func TestComposer_DeviceTurnsTravelAsUser(t *testing.T) {
	c := memory.NewComposer(lengthCounter{}, 0)

	msgs := c.Compose("", []protocol.Turn{
		turn(protocol.RoleOperator, "q"),
		turn(protocol.RoleAssistant, `{"command": ["show version"]}`),
		turn(protocol.RoleDevice, "Cisco IOS XE Software"),
	})

	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	if msgs[2].Role != protocol.WireUser {
		t.Errorf("device turn mapped to %q, want %q", msgs[2].Role, protocol.WireUser)
	}
}

func TestComposer_NoTruncationUnderBudget(t *testing.T) {
	c := memory.NewComposer(lengthCounter{}, 1000)

	turns := []protocol.Turn{
		turn(protocol.RoleOperator, "one"),
		turn(protocol.RoleAssistant, "two"),
		turn(protocol.RoleOperator, "three"),
		turn(protocol.RoleAssistant, "four"),
	}

	msgs := c.Compose("sys", turns)
	if len(msgs) != 5 {
		t.Errorf("got %d messages, want 5", len(msgs))
	}
}

func TestComposer_DropsOldestBlockOverBudget(t *testing.T) {
	// Budget fits the system prompt plus roughly one exchange.
	c := memory.NewComposer(lengthCounter{}, 30)

	turns := []protocol.Turn{
		turn(protocol.RoleOperator, "first question........."),
		turn(protocol.RoleAssistant, "first reply"),
		turn(protocol.RoleOperator, "second q"),
		turn(protocol.RoleAssistant, "second r"),
	}

	msgs := c.Compose("sys", turns)

	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3 (system + final exchange)", len(msgs))
	}
	if msgs[1].Content != "second q" {
		t.Errorf("oldest block not dropped: second message = %q", msgs[1].Content)
	}
}

func TestComposer_NeverSplitsExchange(t *testing.T) {
	c := memory.NewComposer(lengthCounter{}, 5)

	turns := []protocol.Turn{
		turn(protocol.RoleOperator, "only question, longer than budget"),
		turn(protocol.RoleAssistant, "its reply, also long"),
	}

	msgs := c.Compose("", turns)

	// A single block is always kept whole even when over budget.
	if len(msgs) != 2 {
		t.Errorf("got %d messages, want 2", len(msgs))
	}
}

func TestComposer_DropsDeviceOnlyBlocksFirst(t *testing.T) {
	deviceBlock := turn(protocol.RoleDevice, "direct command output, large.........")
	turns := []protocol.Turn{
		turn(protocol.RoleOperator, "old question"),
		turn(protocol.RoleAssistant, "old reply"),
		deviceBlock,
		turn(protocol.RoleOperator, "new q"),
		turn(protocol.RoleAssistant, "new r"),
	}

	// Budget forces exactly one drop.
	c := memory.NewComposer(lengthCounter{}, 35)
	msgs := c.Compose("", turns)

	for _, m := range msgs {
		if m.Content == deviceBlock.Payload {
			t.Fatal("device-only block should be dropped before operator blocks")
		}
	}
	if msgs[0].Content != "old question" {
		t.Errorf("operator block dropped before device-only block: first = %q", msgs[0].Content)
	}
}
