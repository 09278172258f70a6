// Package router intercepts operator meta-commands before they reach the
// model. Meta-commands are slash-prefixed, never consume a model turn, and
// map onto fixed controller actions.
package router

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Command identifies an operator meta-command.
type Command string

const (
	Menu          Command = "menu"           // /m: display the command menu
	PromptView    Command = "prompt-view"    // /p: display the active prompt template
	PromptReload  Command = "prompt-reload"  // /r: reload the template, new context
	DirectCommand Command = "direct-command" // /c <cmd>: send one command to the device
	NewContext    Command = "new-context"    // /n: clear history, keep device/model
	ModelSelect   Command = "model-select"   // /s <model>: switch the active model
	Quit          Command = "quit"           // /q: flush counters and exit
)

// shortcuts maps the leading letter of a slash token to its command.
var shortcuts = map[byte]Command{
	'm': Menu,
	'p': PromptView,
	'r': PromptReload,
	'c': DirectCommand,
	'n': NewContext,
	's': ModelSelect,
	'q': Quit,
}

// Handler executes one meta-command. arg carries the remainder of the
// operator line for commands that take one (direct-command, model-select).
type Handler func(ctx context.Context, arg string) error

// Router dispatches slash-prefixed operator input to registered handlers.
type Router struct {
	mu       sync.RWMutex
	handlers map[Command]Handler
}

// New creates a Router with no bindings.
func New() *Router {
	return &Router{handlers: make(map[Command]Handler)}
}

// Register binds a handler to a meta-command, replacing any previous
// binding.
func (r *Router) Register(cmd Command, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[cmd] = h
}

// Match parses operator input into a meta-command and argument. Returns
// false when the input is not slash-prefixed and should go to the model.
func Match(input string) (Command, string, bool) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "/") || len(trimmed) < 2 {
		return "", "", false
	}

	token, arg, _ := strings.Cut(trimmed, " ")
	cmd, known := shortcuts[token[1]]
	if !known {
		return "", "", false
	}
	return cmd, strings.TrimSpace(arg), true
}

// Dispatch routes slash-prefixed input to its handler. handled is true for
// any slash-prefixed input, recognized or not, so meta-command typos are
// never sent to the model.
func (r *Router) Dispatch(ctx context.Context, input string) (handled bool, err error) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "/") {
		return false, nil
	}

	cmd, arg, ok := Match(trimmed)
	if !ok {
		return true, fmt.Errorf("unrecognized meta-command %q; see /m for the menu", trimmed)
	}

	r.mu.RLock()
	h, bound := r.handlers[cmd]
	r.mu.RUnlock()
	if !bound {
		return true, fmt.Errorf("meta-command %s has no handler", cmd)
	}

	return true, h(ctx, arg)
}
