//go:build gui

package main

import (
	"context"
	"runtime"

	"github.com/chaz8081/voxprompt/internal/app"
	"github.com/chaz8081/voxprompt/internal/config"
	"github.com/chaz8081/voxprompt/internal/ui/gui"
)

const defaultUI = "gui"

// fyne must own the main OS thread.
func init() {
	runtime.LockOSThread()
}

func runGUI(ctx context.Context, ctrl *app.Controller, cfg *config.Config, extra app.Sinks) error {
	w := gui.New(ctx, ctrl, cfg.UI)
	ctrl.SetSink(append(app.Sinks{w}, extra...))
	w.Run()
	return nil
}
