// Copyright 2026 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

// Command dbtpatch patches dbt properties YAML files in place, preserving
// comments, quoting and key order. It reads a single JSON request from
// standard input (or --input) and writes a single JSON response to standard
// output; recognized errors are printed as one line to standard error with
// exit code 1.
package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"dbtpatch.io/pkg/props"
)

type Context struct {
}

var cli struct {
	Update      UpdateCmd      `cmd:"" help:"Apply column/model description edits to several models in one properties file."`
	UpdateModel UpdateModelCmd `cmd:"" help:"Apply column/model description edits to a single model."`
	Relocate    RelocateCmd    `cmd:"" help:"Move a model block from one properties file to another, deleting source files left empty."`

	Version kong.VersionFlag `name:"version" help:"Print version information and quit"`
}

type CommonFlags struct {
	Input    string `name:"input" short:"i" help:"Read the JSON request from a file instead of standard input." type:"existingfile"`
	Config   string `name:"config" help:"Tool configuration file." type:"file"`
	LogLevel string `name:"log-level" help:"Log verbosity: debug, info, warn or error. Overrides the config file."`
}

func (c *CommonFlags) AfterApply() error {
	if c.Config == "" {
		_, err := os.Stat(configFile)
		if err == nil {
			c.Config = configFile
		}
	}
	return nil
}

func (c *CommonFlags) newPatcher(dryRun bool) (*props.Patcher, error) {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if c.LogLevel != "" {
		level = c.LogLevel
	}
	logger, err := newLogger(level)
	if err != nil {
		return nil, err
	}

	p := props.New()
	if cfg.Indent > 0 {
		p.Indent = cfg.Indent
	}
	p.DryRun = dryRun
	p.Log = logger
	return p, nil
}

type UpdateCmd struct {
	CommonFlags

	DryRun bool `name:"dry-run" help:"Report the columns that would change without writing the file."`
}

func (c *UpdateCmd) Run(ctx *Context) error {
	var req updateRequest
	if err := c.readRequest(&req); err != nil {
		return err
	}
	if err := req.validate(); err != nil {
		return err
	}
	updates, err := req.toUpdates()
	if err != nil {
		return err
	}

	p, err := c.newPatcher(c.DryRun)
	if err != nil {
		return err
	}
	results, err := p.Apply(req.PatchPath, updates)
	if err != nil {
		return err
	}
	return respond(updateResponse{Results: results})
}

type UpdateModelCmd struct {
	CommonFlags

	DryRun bool `name:"dry-run" help:"Report the columns that would change without writing the file."`
}

func (c *UpdateModelCmd) Run(ctx *Context) error {
	var req singleUpdateRequest
	if err := c.readRequest(&req); err != nil {
		return err
	}
	if err := req.validate(); err != nil {
		return err
	}
	update, err := req.toUpdate()
	if err != nil {
		return err
	}

	p, err := c.newPatcher(c.DryRun)
	if err != nil {
		return err
	}
	results, err := p.Apply(req.PatchPath, []props.ModelUpdate{update})
	if err != nil {
		return err
	}
	updated := results[req.ModelName]
	if updated == nil {
		updated = []string{}
	}
	return respond(singleUpdateResponse{UpdatedColumns: updated})
}

type RelocateCmd struct {
	CommonFlags
}

func (c *RelocateCmd) Run(ctx *Context) error {
	var req relocateRequest
	if err := c.readRequest(&req); err != nil {
		return err
	}
	if err := req.validate(); err != nil {
		return err
	}

	p, err := c.newPatcher(false)
	if err != nil {
		return err
	}
	mutated, err := p.Relocate(req.CurrentPatch, req.ExpectedPatch, req.ModelName)
	if err != nil {
		return err
	}
	return respond(relocateResponse{Mutated: mutated})
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl := zerolog.WarnLevel
	if level != "" {
		var err error
		lvl, err = zerolog.ParseLevel(level)
		if err != nil {
			return zerolog.Logger{}, err
		}
	}
	w := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

func main() {
	ctx := kong.Parse(&cli,
		kong.UsageOnError(),
		kong.Vars{
			"version": "0.1.0",
		},
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
	)
	err := ctx.Run(&Context{})
	ctx.FatalIfErrorf(err)
}
