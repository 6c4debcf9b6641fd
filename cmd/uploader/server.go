package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	// Packages
	httprouter "github.com/mutablelogic/go-server/pkg/httprouter"
	httpserver "github.com/mutablelogic/go-server/pkg/httpserver"
	uploader "github.com/mutablelogic/go-uploader"
	httphandler "github.com/mutablelogic/go-uploader/pkg/httphandler"
	manager "github.com/mutablelogic/go-uploader/pkg/manager"
	version "github.com/mutablelogic/go-uploader/pkg/version"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type ServerCommands struct {
	Server RunServerCommand `cmd:"" name:"server" help:"Run HTTP server." group:"SERVER"`
}

type RunServerCommand struct{}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *RunServerCommand) Run(ctx *Globals) error {
	mgr, err := newManager(ctx)
	if err != nil {
		return fmt.Errorf("failed to create manager: %w", err)
	}
	defer mgr.Close()

	return serve(ctx, mgr)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// newManager opens the configured backends and applies the upload policy.
func newManager(ctx *Globals) (*manager.Manager, error) {
	if len(ctx.Config.Backends) == 0 {
		return nil, errors.New("at least one --backend is required")
	}
	stores, err := ctx.Config.OpenStores(ctx.ctx, nil)
	if err != nil {
		return nil, err
	}
	uploadOpts, err := ctx.Config.UploaderOpts()
	if err != nil {
		return nil, errors.Join(err, closeStores(stores))
	}
	maxSize, err := ctx.Config.MaxObjectSizeBytes()
	if err != nil {
		return nil, errors.Join(err, closeStores(stores))
	}

	opts := []manager.Opt{
		manager.WithStore(stores...),
		manager.WithLogger(ctx.logger),
		manager.WithUploadOpts(uploadOpts...),
	}
	if len(ctx.Config.AllowTypes) > 0 {
		opts = append(opts, manager.WithAllowTypes(ctx.Config.AllowTypes...))
	}
	if maxSize > 0 {
		opts = append(opts, manager.WithMaxSize(maxSize))
	}

	// Stores are closed with the manager
	return manager.New(ctx.ctx, opts...)
}

// serve registers HTTP handlers and runs the server until context is done.
func serve(ctx *Globals, mgr *manager.Manager) error {
	// Create the router
	router, err := httprouter.NewRouter(ctx.ctx, ctx.HTTP.Prefix, ctx.HTTP.Origin, "uploader", version.Version())
	if err != nil {
		return fmt.Errorf("failed to create router: %w", err)
	}

	// Register upload HTTP handlers
	var opts []httphandler.Opt
	if ctx.Config.MaxRequests > 0 {
		opts = append(opts, httphandler.WithRequestLimit(ctx.Config.MaxRequests))
	}
	if err := httphandler.RegisterHandlers(mgr, router, opts...); err != nil {
		return fmt.Errorf("failed to register handlers: %w", err)
	}

	// Create and run the HTTP server
	srv, err := httpserver.New(ctx.HTTP.Addr, http.Handler(router), nil)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	backends := make([]string, 0, len(mgr.Backends()))
	for _, backend := range mgr.Backends() {
		backends = append(backends, backend.Name)
	}
	ctx.logger.Info("uploader started", "version", version.Version(), "addr", ctx.HTTP.Addr, "backends", backends)
	if err := srv.Run(ctx.ctx); err != nil {
		return err
	}
	ctx.logger.InfoContext(context.Background(), "uploader stopped")
	return nil
}

func closeStores(stores []uploader.Store) error {
	var result error
	for _, store := range stores {
		result = errors.Join(result, store.Close())
	}
	return result
}
