package main

import (
	"fmt"

	"github.com/cuemby/graphstore/pkg/gid"
	"github.com/cuemby/graphstore/pkg/workspace"
	"github.com/spf13/cobra"
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Inspect and mutate the node set",
}

var nodeSetCmd = &cobra.Command{
	Use:   "set <id> <label>",
	Short: "Set a node's label, creating or relabeling it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := gid.ParseID(args[0])
		if err != nil {
			return err
		}
		label := gid.HashLabel(args[1])

		return withWorkspace(cmd, func(w *workspace.Workspace) error {
			applied, err := w.SetNode(id, &label)
			if err != nil {
				return err
			}
			fmt.Printf("applied: %t\n", applied)
			return nil
		})
	},
}

var nodeDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := gid.ParseID(args[0])
		if err != nil {
			return err
		}

		return withWorkspace(cmd, func(w *workspace.Workspace) error {
			applied, err := w.SetNode(id, nil)
			if err != nil {
				return err
			}
			fmt.Printf("applied: %t\n", applied)
			return nil
		})
	},
}

var nodeGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print a node's label",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := gid.ParseID(args[0])
		if err != nil {
			return err
		}

		return withWorkspace(cmd, func(w *workspace.Workspace) error {
			v, err := w.Node(id)
			if err != nil {
				return err
			}
			if v == nil {
				fmt.Println("(no such node)")
				return nil
			}
			fmt.Printf("label: %d\n", v.Label)
			return nil
		})
	},
}

var nodeListByLabelCmd = &cobra.Command{
	Use:   "list-by-label <label>",
	Short: "List every node id currently carrying label",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := gid.HashLabel(args[0])

		return withWorkspace(cmd, func(w *workspace.Workspace) error {
			ids, err := w.NodeIDByLabel(label)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Println(id.String())
			}
			return nil
		})
	},
}

func init() {
	nodeCmd.AddCommand(nodeSetCmd, nodeDeleteCmd, nodeGetCmd, nodeListByLabelCmd)
}
