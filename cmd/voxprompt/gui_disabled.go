//go:build !gui

package main

import (
	"context"
	"errors"

	"github.com/chaz8081/voxprompt/internal/app"
	"github.com/chaz8081/voxprompt/internal/config"
)

const defaultUI = "tui"

func runGUI(context.Context, *app.Controller, *config.Config, app.Sinks) error {
	return errors.New("built without GUI support (rebuild with -tags gui)")
}
