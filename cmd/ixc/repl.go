package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/netop-tools/ixc/controller"
	"github.com/netop-tools/ixc/device"
)

// repl drives the interactive loop: print the prompt frame, read one
// operator line, hand it to the controller, repeat until quit or EOF.
// Ctrl-C cancels only the in-flight turn, not the session.
func repl(ctrl *controller.Controller, ex device.Executor, presenter *terminalPresenter) error {
	ctrl.ProbeDevice(context.Background())
	presenter.ShowInfo("connected to " + ex.Prompt() + " (type /m for the menu, /q to quit)")

	for !ctrl.Done() {
		printFrame(presenter, ctrl, ex)

		line, err := presenter.readLine()
		if errors.Is(err, io.EOF) {
			// EOF quits cleanly, flushing counters like /q.
			return ctrl.HandleInput(context.Background(), "/q")
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		err = ctrl.HandleInput(ctx, line)
		stop()

		if errors.Is(err, context.Canceled) {
			presenter.ShowInfo("interrupted")
			continue
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// printFrame renders the two-line prompt frame showing context depth,
// active model, and the live device prompt:
//
//	┌──[3]─[gpt-5-mini]─[router#]
//	└─>
func printFrame(presenter *terminalPresenter, ctrl *controller.Controller, ex device.Executor) {
	sess := ctrl.Session()
	frame := fmt.Sprintf("┌──[%d]─[%s]─[%s]", sess.Depth(), sess.Model(), ex.Prompt())
	fmt.Fprintln(presenter.out, frameStyle.Render(frame))
	fmt.Fprint(presenter.out, frameStyle.Render("└─> "))
}
