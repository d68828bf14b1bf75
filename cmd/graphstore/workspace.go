package main

import (
	"github.com/cuemby/graphstore/pkg/config"
	"github.com/cuemby/graphstore/pkg/workspace"
	"github.com/spf13/cobra"
)

// withWorkspace opens the workspace named by the --workspace/--constraints
// persistent flags, runs fn, and commits and closes the workspace
// afterward regardless of fn's outcome. It is the shared entry point
// for every subcommand that touches workspace state: each CLI
// invocation is its own short-lived process, so "open, do one thing,
// commit, close" is the whole lifecycle.
func withWorkspace(cmd *cobra.Command, fn func(w *workspace.Workspace) error) error {
	path, err := cmd.Flags().GetString("workspace")
	if err != nil {
		return err
	}
	constraintsPath, err := cmd.Flags().GetString("constraints")
	if err != nil {
		return err
	}

	var constraints *config.Registry
	if constraintsPath != "" {
		constraints, err = config.LoadFile(constraintsPath)
		if err != nil {
			return err
		}
	}

	w, err := workspace.Open(path, constraints)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := fn(w); err != nil {
		return err
	}
	return w.Commit()
}
