package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Packages
	kong "github.com/alecthomas/kong"
	config "github.com/mutablelogic/go-uploader/pkg/config"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type Globals struct {
	Debug bool   `name:"debug" help:"Enable debug output"`
	File  string `name:"config" env:"UPLOADER_CONFIG" type:"existingfile" help:"YAML configuration file, read over flag values"`

	// HTTP server and client
	HTTP struct {
		Addr    string        `name:"addr" env:"UPLOADER_ADDR" default:"localhost:8080" help:"Address to listen on or connect to"`
		Prefix  string        `name:"prefix" env:"UPLOADER_PREFIX" default:"/api/uploader" help:"Path prefix for the API"`
		Origin  string        `name:"origin" default:"*" help:"Allowed cross-origin requests"`
		Timeout time.Duration `name:"timeout" env:"UPLOADER_TIMEOUT" default:"0s" help:"Client request timeout (0 for none)"`
	} `embed:"" prefix:"http."`

	// Uploads and backends
	Config config.Config `embed:"" group:"UPLOAD"`

	vars   kong.Vars `kong:"-"` // Variables for kong
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func NewApp(app Globals, vars kong.Vars) (*Globals, error) {
	// Set the vars
	app.vars = vars

	// Read the configuration file over the flags
	if app.File != "" {
		if err := app.Config.Read(app.File); err != nil {
			return nil, err
		}
	} else if err := app.Config.Validate(); err != nil {
		return nil, err
	}

	// Log to stderr
	level := slog.LevelInfo
	if app.Debug {
		level = slog.LevelDebug
	}
	app.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Create the context
	// This context is cancelled when the process receives a SIGINT or SIGTERM
	app.ctx, app.cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// Return the app
	return &app, nil
}

func (app *Globals) Close() error {
	app.cancel()
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// METHODS

func (app *Globals) Context() context.Context {
	return app.ctx
}

func (app *Globals) Logger() *slog.Logger {
	return app.logger
}
