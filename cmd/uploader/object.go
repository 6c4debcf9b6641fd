package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	// Packages
	mimetype "github.com/gabriel-vasile/mimetype"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type ObjectCommands struct {
	Backends BackendsCommand `cmd:"" group:"OBJECTS" help:"List backends"`
	Put      PutCommand      `cmd:"" group:"OBJECTS" help:"Upload a file through the server"`
	Head     HeadCommand     `cmd:"" group:"OBJECTS" help:"Get object metadata"`
	Get      GetCommand      `cmd:"" group:"OBJECTS" help:"Download an object"`
	Rm       DeleteCommand   `cmd:"" group:"OBJECTS" help:"Delete an object"`
}

type BackendsCommand struct{}

type HeadCommand struct {
	Backend string `arg:"" name:"backend" help:"Backend name"`
	Key     string `arg:"" name:"key" help:"Object key"`
}

type GetCommand struct {
	HeadCommand
	Output string `name:"output" short:"o" help:"Write to file instead of stdout"`
}

type DeleteCommand struct {
	HeadCommand
}

type PutCommand struct {
	Backend string `arg:"" name:"backend" help:"Backend name"`
	Path    string `arg:"" name:"path" type:"existingfile" help:"Local file to upload"`
	Key     string `name:"key" short:"k" help:"Object key (defaults to the file name)"`
	Type    string `name:"type" help:"Content type (detected from the file when not set)"`
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (cmd *BackendsCommand) Run(ctx *Globals) error {
	c, err := ctx.Client()
	if err != nil {
		return err
	}
	resp, err := c.ListBackends(ctx.ctx)
	if err != nil {
		return err
	}
	return prettyJSON(resp)
}

func (cmd *PutCommand) Run(ctx *Globals) error {
	c, err := ctx.Client()
	if err != nil {
		return err
	}
	f, err := os.Open(cmd.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	key := cmd.Key
	if key == "" {
		key = filepath.Base(cmd.Path)
	}
	contentType := cmd.Type
	if contentType == "" {
		if mt, err := mimetype.DetectReader(f); err == nil {
			contentType = mt.String()
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return err
		}
	}

	result, err := c.PutObject(ctx.ctx, cmd.Backend, key, f, contentType)
	if err != nil {
		return err
	}
	return prettyJSON(result)
}

func (cmd *HeadCommand) Run(ctx *Globals) error {
	c, err := ctx.Client()
	if err != nil {
		return err
	}
	obj, err := c.GetObject(ctx.ctx, cmd.Backend, cmd.Key)
	if err != nil {
		return err
	}
	return prettyJSON(obj)
}

func (cmd *GetCommand) Run(ctx *Globals) error {
	c, err := ctx.Client()
	if err != nil {
		return err
	}
	var out io.Writer = os.Stdout
	var outFile *os.File
	if cmd.Output != "" {
		outFile, err = os.Create(cmd.Output)
		if err != nil {
			return err
		}
		out = outFile
	}
	_, err = c.ReadObject(ctx.ctx, cmd.Backend, cmd.Key, func(chunk []byte) error {
		_, err := out.Write(chunk)
		return err
	})
	if outFile != nil {
		outFile.Close()
		if err != nil {
			os.Remove(cmd.Output)
		}
	}
	return err
}

func (cmd *DeleteCommand) Run(ctx *Globals) error {
	c, err := ctx.Client()
	if err != nil {
		return err
	}
	obj, err := c.DeleteObject(ctx.ctx, cmd.Backend, cmd.Key)
	if err != nil {
		return err
	}
	return prettyJSON(obj)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func prettyJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
