package main

import (
	"fmt"

	"github.com/cuemby/graphstore/pkg/workspace"
	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open (creating if absent) the workspace and report its identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, func(w *workspace.Workspace) error {
			fmt.Printf("workspace bucket: %016x\n", w.Bucket())
			stats, err := w.Stats()
			if err != nil {
				return err
			}
			fmt.Printf("nodes: %d  atoms: %d  edges: %d\n", stats.Nodes, stats.Atoms, stats.Edges)
			return nil
		})
	},
}
