// Package controller implements the conversational turn loop mediating
// between the operator, the completion engine, and the device channel.
//
// The controller initializes from configuration via New, creating all
// subsystems internally. Functional options allow overrides of any
// subsystem, which the CLI uses to inject the dialed device connection and
// tests use to inject fakes.
//
//	c, err := controller.New(&cfg, controller.WithDevice(ex), controller.WithPresenter(p))
//	err = c.HandleInput(ctx, "what is the IP of Gi1?")
package controller

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/netop-tools/ixc/core/envelope"
	"github.com/netop-tools/ixc/core/protocol"
	"github.com/netop-tools/ixc/device"
	"github.com/netop-tools/ixc/engine"
	"github.com/netop-tools/ixc/memory"
	"github.com/netop-tools/ixc/observability"
	"github.com/netop-tools/ixc/router"
	"github.com/netop-tools/ixc/session"
)

//go:embed prompt.md
var defaultTemplate string

const menuText = `meta-commands:
  /m            show this menu
  /p            show the active prompt template
  /r            reload the prompt template, starting a new context
  /c <command>  run one command on the device, bypassing the model
  /n            new context: history cleared, device and model kept
  /s [model]    switch the active model, or list known models
  /q            quit, flushing final token counters`

// Option configures a Controller after config-driven initialization.
// Applied by New before subsystem defaults are created, so an option wins
// over its config-created counterpart.
type Option func(*Controller)

// WithEngine overrides the config-created completion engine.
func WithEngine(e engine.Engine) Option {
	return func(c *Controller) { c.engine = e }
}

// WithDevice supplies the device executor. The CLI dials SSH and passes
// the connection here; there is no config-created default.
func WithDevice(d device.Executor) Option {
	return func(c *Controller) { c.device = d }
}

// WithSession overrides the config-created session.
func WithSession(s *session.Session) Option {
	return func(c *Controller) { c.sess = s }
}

// WithStore overrides the config-created memory store.
func WithStore(s memory.Store) Option {
	return func(c *Controller) { c.store = s }
}

// WithRegistry overrides the default model registry.
func WithRegistry(r *engine.Registry) Option {
	return func(c *Controller) { c.registry = r }
}

// WithObserver overrides the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithPresenter supplies the presenter rendering controller output.
func WithPresenter(p Presenter) Option {
	return func(c *Controller) { c.presenter = p }
}

// Controller is the session state machine: it routes meta-commands,
// drives model turns, validates reply envelopes, executes device
// requests, and bounds the automatic feedback loop.
type Controller struct {
	engine    engine.Engine
	device    device.Executor
	sess      *session.Session
	store     memory.Store
	composer  *memory.Composer
	registry  *engine.Registry
	router    *router.Router
	observer  observability.Observer
	presenter Presenter

	maxAutoTurns int
	template     string
	deviceInfo   string
	done         bool
}

// New creates a Controller from configuration. Subsystems are initialized
// from their config sections unless an option supplied them. The device
// executor and presenter have no config-created defaults and must come
// from options.
func New(cfg *Config, opts ...Option) (*Controller, error) {
	c := &Controller{
		router:       router.New(),
		maxAutoTurns: cfg.MaxAutoTurns,
	}
	if c.maxAutoTurns <= 0 {
		c.maxAutoTurns = defaultMaxAutoTurns
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.device == nil {
		return nil, ErrDeviceRequired
	}
	if c.presenter == nil {
		return nil, ErrPresenterRequired
	}
	if c.observer == nil {
		c.observer = observability.NewSlogObserver(slog.Default())
	}
	if c.registry == nil {
		c.registry = engine.DefaultRegistry()
	}

	if c.engine == nil {
		eng, err := engine.New(&cfg.Engine)
		if err != nil {
			return nil, fmt.Errorf("failed to create engine: %w", err)
		}
		c.engine = eng
	}

	if c.sess == nil {
		model := cfg.Model
		if model == "" {
			model = defaultModel
		}
		if _, err := c.registry.Lookup(model); err != nil {
			return nil, err
		}
		c.sess = session.New(model)
	}

	if c.store == nil {
		store, err := memory.NewStore(&cfg.Memory)
		if err != nil {
			return nil, fmt.Errorf("failed to create memory store: %w", err)
		}
		c.store = store
	}

	c.composer = memory.NewComposer(c.engine, cfg.Memory.TokenBudget)

	if err := c.loadTemplate(context.Background()); err != nil {
		return nil, err
	}

	c.bindRouter()
	return c, nil
}

// Session returns the controller's session, for the REPL prompt frame.
func (c *Controller) Session() *session.Session {
	return c.sess
}

// Done reports whether the quit meta-command has run.
func (c *Controller) Done() bool {
	return c.done
}

// ProbeDevice queries the device for version and chassis facts and folds
// them into the developer prompt so the model knows its platform. Called
// at startup and on prompt-reload.
func (c *Controller) ProbeDevice(ctx context.Context) {
	c.deviceInfo = device.Info(ctx, c.device)
}

// HandleInput processes one line of operator input: empty input is a
// no-op, meta-commands execute immediately, and anything else becomes a
// conversational turn. Failures that leave the session usable are
// presented rather than returned; the error return is reserved for
// cancellation while awaiting the model.
func (c *Controller) HandleInput(ctx context.Context, input string) error {
	if strings.TrimSpace(input) == "" {
		return nil
	}

	if handled, err := c.router.Dispatch(ctx, input); handled {
		if err != nil {
			c.presenter.ShowError(err)
		}
		return nil
	}

	return c.converse(ctx, input)
}

// converse runs one operator-initiated exchange: model call, envelope
// validation with one-shot repair, and the bounded device feedback loop.
func (c *Controller) converse(ctx context.Context, input string) error {
	c.sess.Append(protocol.NewTurn(protocol.RoleOperator, input))
	c.sess.IncrementDepth()

	c.emit(ctx, observability.EventTurnStart, observability.LevelInfo, map[string]any{
		"session": c.sess.ID(),
		"depth":   c.sess.Depth(),
	})

	autoTurns := 0
	for {
		env, err := c.completeAndValidate(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				// Interrupted while awaiting the model: no partial reply
				// was committed, the operator turn stays for the next try.
				return ctxErr
			}
			c.presenter.ShowError(err)
			return nil
		}

		switch env.Kind {
		case envelope.KindAnswer:
			c.presenter.ShowAnswer(env.Answer)
			c.emit(ctx, observability.EventTurnComplete, observability.LevelInfo, map[string]any{
				"auto_turns": autoTurns,
			})
			return nil

		case envelope.KindCommand:
			payload := c.runShow(ctx, env.Commands)
			c.sess.Append(protocol.NewTurn(protocol.RoleDevice, payload))
			c.presenter.ShowDeviceOutput(payload)

			autoTurns++
			if autoTurns >= c.maxAutoTurns {
				c.emit(ctx, observability.EventLoopLimit, observability.LevelWarning, map[string]any{
					"auto_turns": autoTurns,
				})
				c.presenter.ShowError(fmt.Errorf("%w: %d device turns without an answer", ErrAutoLoopLimit, autoTurns))
				return nil
			}
			c.emit(ctx, observability.EventAutoTurn, observability.LevelVerbose, map[string]any{
				"auto_turns": autoTurns,
			})

		case envelope.KindConfigure:
			// Configuration outcomes are never auto-fed back to the model,
			// to avoid unreviewed cascading changes.
			c.applyConfigure(ctx, env.ConfigLines)
			return nil
		}
	}
}

// completeAndValidate calls the model and validates the reply envelope,
// retrying exactly once via a corrective repair turn on decode failure.
// Malformed replies stay in history so the model can self-correct later.
func (c *Controller) completeAndValidate(ctx context.Context) (*envelope.Envelope, error) {
	reply, err := c.complete(ctx)
	if err != nil {
		return nil, err
	}

	env, decodeErr := c.appendAssistant(reply)
	if decodeErr == nil {
		return env, nil
	}

	c.emit(ctx, observability.EventRepair, observability.LevelWarning, map[string]any{
		"reason": decodeErr.Error(),
	})
	c.sess.Append(protocol.NewTurn(protocol.RoleOperator, repairMessage(decodeErr)))

	reply, err = c.complete(ctx)
	if err != nil {
		return nil, err
	}

	env, decodeErr = c.appendAssistant(reply)
	if decodeErr != nil {
		c.emit(ctx, observability.EventRepairFailed, observability.LevelError, map[string]any{
			"reason": decodeErr.Error(),
		})
		return nil, decodeErr
	}
	return env, nil
}

// appendAssistant records the raw reply as an assistant turn, marking it
// when envelope validation failed.
func (c *Controller) appendAssistant(reply string) (*envelope.Envelope, error) {
	env, err := envelope.Parse(reply)

	turn := protocol.NewTurn(protocol.RoleAssistant, reply)
	if err != nil {
		turn.DecodeFailed = true
		turn.DecodeReason = err.Error()
	}
	c.sess.Append(turn)

	return env, err
}

// complete composes the context window and calls the completion engine,
// folding reported usage into the cumulative counters.
func (c *Controller) complete(ctx context.Context) (string, error) {
	msgs := c.composer.Compose(c.systemPrompt(), c.sess.Turns())

	c.emit(ctx, observability.EventModelCall, observability.LevelVerbose, map[string]any{
		"model":            c.sess.Model(),
		"context_messages": len(msgs),
	})

	reply, err := c.engine.Complete(ctx, msgs, c.sess.Model())
	if err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}

	c.sess.AddUsage(reply.InputTokens, reply.OutputTokens)
	c.emit(ctx, observability.EventModelReply, observability.LevelVerbose, map[string]any{
		"input_tokens":  reply.InputTokens,
		"output_tokens": reply.OutputTokens,
	})
	return reply.Text, nil
}

// runShow executes a command envelope in order and formats the labeled
// outcomes into one device turn payload. Per-command failures are
// collected, never aborting siblings.
func (c *Controller) runShow(ctx context.Context, commands []string) string {
	c.emit(ctx, observability.EventDeviceShow, observability.LevelInfo, map[string]any{
		"commands": len(commands),
	})

	results := c.device.RunShow(ctx, commands)

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "### %s\n", r.Command)
		if r.Err != nil {
			b.WriteString(r.Err.Error())
			if device.Forbidden(r.Command) {
				c.emit(ctx, observability.EventGuardBlocked, observability.LevelWarning, map[string]any{
					"command": r.Command,
				})
			}
		} else {
			b.WriteString(r.Output)
		}
	}
	return b.String()
}

// applyConfigure gates a configure envelope behind operator confirmation,
// applies it, and reports the applied prefix on rejection.
func (c *Controller) applyConfigure(ctx context.Context, lines []string) {
	if !c.presenter.ConfirmConfig(lines) {
		c.emit(ctx, observability.EventConfigDecline, observability.LevelInfo, map[string]any{
			"lines": len(lines),
		})
		c.presenter.ShowInfo("configuration discarded")
		return
	}

	c.emit(ctx, observability.EventDeviceConfig, observability.LevelInfo, map[string]any{
		"lines": len(lines),
	})

	result, err := c.device.RunConfigure(ctx, lines)
	if err != nil {
		c.presenter.ShowError(err)
		return
	}

	report := configReport(result, len(lines))
	c.sess.Append(protocol.NewTurn(protocol.RoleDevice, report))
	c.presenter.ShowDeviceOutput(report)

	if result.Failed() {
		c.presenter.ShowError(fmt.Errorf("configure halted at %q: %s", result.FailedLine, result.FailureReason))
	}
}

func configReport(result *device.ConfigResult, submitted int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "applied %d of %d configuration lines\n", result.Applied, submitted)
	if result.Output != "" {
		b.WriteString(result.Output + "\n")
	}
	if result.Failed() {
		fmt.Fprintf(&b, "rejected line %q: %s", result.FailedLine, result.FailureReason)
	}
	return strings.TrimSpace(b.String())
}

func repairMessage(decodeErr error) string {
	return fmt.Sprintf(`Your last reply was not a valid response envelope: %v

Reply with exactly one JSON object, no code fences, containing exactly one of:
{"command": ["<cli command>", ...]}
{"configure": ["<config line>", ...]}
{"answer": "<markdown text>"}`, decodeErr)
}

// systemPrompt returns the developer prompt: the template plus the device
// facts block when the probe has run.
func (c *Controller) systemPrompt() string {
	if c.deviceInfo == "" {
		return c.template
	}
	return c.template + "\n\nDevice facts:\n" + c.deviceInfo
}

// loadTemplate reads the prompt template from the store, falling back to
// the embedded default when persistence is disabled or the key is absent.
func (c *Controller) loadTemplate(ctx context.Context) error {
	c.template = defaultTemplate
	if c.store == nil {
		return nil
	}

	entries, err := c.store.Load(ctx, memory.KeyPromptTemplate)
	if errors.Is(err, memory.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load prompt template: %w", err)
	}

	c.template = string(entries[0].Value)
	return nil
}

func (c *Controller) bindRouter() {
	c.router.Register(router.Menu, func(ctx context.Context, _ string) error {
		c.presenter.ShowInfo(menuText)
		return nil
	})
	c.router.Register(router.PromptView, func(ctx context.Context, _ string) error {
		c.presenter.ShowInfo(c.systemPrompt())
		return nil
	})
	c.router.Register(router.PromptReload, c.reloadPrompt)
	c.router.Register(router.DirectCommand, c.directCommand)
	c.router.Register(router.NewContext, c.newContext)
	c.router.Register(router.ModelSelect, c.selectModel)
	c.router.Register(router.Quit, c.quit)
}

func (c *Controller) newContext(ctx context.Context, _ string) error {
	c.sess.Reset()
	c.emit(ctx, observability.EventContextReset, observability.LevelInfo, map[string]any{
		"session": c.sess.ID(),
	})
	c.presenter.ShowInfo("new context started")
	return nil
}

func (c *Controller) reloadPrompt(ctx context.Context, _ string) error {
	if err := c.loadTemplate(ctx); err != nil {
		return err
	}
	c.ProbeDevice(ctx)
	c.sess.Reset()
	c.emit(ctx, observability.EventContextReset, observability.LevelInfo, map[string]any{
		"session": c.sess.ID(),
		"reload":  true,
	})
	c.presenter.ShowInfo("prompt template reloaded, new context started")
	return nil
}

// directCommand runs one operator-supplied command on the device,
// bypassing the model and the guard. The exchange is appended as a device
// turn so it still contributes to model context on the next turn.
func (c *Controller) directCommand(ctx context.Context, arg string) error {
	if arg == "" {
		return fmt.Errorf("usage: /c <command>")
	}

	out, err := c.device.RunDirect(ctx, arg)
	if err != nil {
		return err
	}

	c.emit(ctx, observability.EventDeviceDirect, observability.LevelInfo, map[string]any{
		"command": arg,
	})
	c.sess.Append(protocol.NewTurn(protocol.RoleDevice, "### "+arg+"\n"+out))
	c.presenter.ShowDeviceOutput(out)
	return nil
}

func (c *Controller) selectModel(ctx context.Context, arg string) error {
	if arg == "" {
		var b strings.Builder
		b.WriteString("known models:\n")
		for _, m := range c.registry.List() {
			marker := "  "
			if m.ID == c.sess.Model() {
				marker = "* "
			}
			fmt.Fprintf(&b, "%s%s  %s\n", marker, m.ID, m.Description)
		}
		c.presenter.ShowInfo(strings.TrimSpace(b.String()))
		return nil
	}

	if _, err := c.registry.Lookup(arg); err != nil {
		return err
	}
	c.sess.SetModel(arg)
	c.emit(ctx, observability.EventModelSwitch, observability.LevelInfo, map[string]any{
		"model": arg,
	})
	c.presenter.ShowInfo("model switched to " + arg)
	return nil
}

// quit flushes the cumulative counters, persists a usage snapshot when a
// store is configured, and marks the controller done.
func (c *Controller) quit(ctx context.Context, _ string) error {
	c.done = true

	usage := c.sess.Usage()
	c.emit(ctx, observability.EventUsageFlush, observability.LevelInfo, map[string]any{
		"input_tokens":  usage.InputTokens,
		"output_tokens": usage.OutputTokens,
		"total":         usage.Total(),
	})
	c.presenter.ShowInfo(fmt.Sprintf("tokens used: %d in, %d out, %d total",
		usage.InputTokens, usage.OutputTokens, usage.Total()))

	if c.store == nil {
		return nil
	}

	snapshot, err := json.Marshal(map[string]int64{
		"input_tokens":  usage.InputTokens,
		"output_tokens": usage.OutputTokens,
		"total":         usage.Total(),
	})
	if err != nil {
		return err
	}
	return c.store.Save(ctx, memory.Entry{Key: memory.KeyUsageSnapshot, Value: snapshot})
}

func (c *Controller) emit(ctx context.Context, t observability.EventType, level observability.Level, data map[string]any) {
	c.observer.OnEvent(ctx, observability.Event{
		Type:      t,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "controller",
		Data:      data,
	})
}
