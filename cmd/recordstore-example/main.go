/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/mitchellh/cli"

	"github.com/suparena/recordstore/internal/example"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	example.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	meta := &Meta{
		Ctx: ctx,
		Ui: &cli.BasicUi{
			Reader:      os.Stdin,
			Writer:      os.Stdout,
			ErrorWriter: os.Stderr,
		},
	}

	exampleCLI := &cli.CLI{
		Name:     "recordstore-example",
		Version:  versionString(),
		Args:     args,
		Commands: Commands(meta),
		HelpFunc: cli.BasicHelpFunc("recordstore-example"),
	}

	exitCode, err := exampleCLI.Run()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		return 1
	}
	return exitCode
}

// Commands returns the command factories sharing meta.
func Commands(meta *Meta) map[string]cli.CommandFactory {
	return map[string]cli.CommandFactory{
		"status": func() (cli.Command, error) {
			return &StatusCommand{Meta: meta}, nil
		},
		"list": func() (cli.Command, error) {
			return &ListCommand{Meta: meta}, nil
		},
		"show": func() (cli.Command, error) {
			return &ShowCommand{Meta: meta}, nil
		},
		"create": func() (cli.Command, error) {
			return &CreateCommand{Meta: meta}, nil
		},
		"update": func() (cli.Command, error) {
			return &UpdateCommand{Meta: meta}, nil
		},
		"delete": func() (cli.Command, error) {
			return &DeleteCommand{Meta: meta}, nil
		},
		"purge": func() (cli.Command, error) {
			return &PurgeCommand{Meta: meta}, nil
		},
		"profile": func() (cli.Command, error) {
			return &ProfileCommand{Meta: meta}, nil
		},
		"types": func() (cli.Command, error) {
			return &TypesCommand{Meta: meta}, nil
		},
		"version": func() (cli.Command, error) {
			return &VersionCommand{Meta: meta}, nil
		},
	}
}
