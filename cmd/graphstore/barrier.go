package main

import (
	"fmt"

	"github.com/cuemby/graphstore/pkg/workspace"
	"github.com/spf13/cobra"
)

var barrierCmd = &cobra.Command{
	Use:   "barrier",
	Short: "Run the write-read barrier and print every change it made",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, func(w *workspace.Workspace) error {
			result, err := w.Barrier()
			if err != nil {
				return err
			}

			if result.Empty() {
				fmt.Println("no changes")
				return nil
			}
			for _, e := range result.Nodes {
				fmt.Printf("node %s: %s\n", e.ID, changeKind(e.Prev == nil, e.Curr == nil))
			}
			for _, e := range result.Atoms {
				fmt.Printf("atom %s: %s\n", e.ID, changeKind(e.Prev == nil, e.Curr == nil))
			}
			for _, e := range result.Edges {
				fmt.Printf("edge %s: %s\n", e.ID, changeKind(e.Prev == nil, e.Curr == nil))
			}
			return nil
		})
	},
}

func changeKind(created, deleted bool) string {
	switch {
	case created:
		return "created"
	case deleted:
		return "deleted"
	default:
		return "updated"
	}
}
