package main

import (
	"fmt"

	"github.com/cuemby/graphstore/pkg/crdt"
	"github.com/cuemby/graphstore/pkg/gid"
	"github.com/cuemby/graphstore/pkg/workspace"
	"github.com/spf13/cobra"
)

var edgeCmd = &cobra.Command{
	Use:   "edge",
	Short: "Inspect and mutate the edge set",
}

var edgeSetCmd = &cobra.Command{
	Use:   "set <id> <src> <label> <dst>",
	Short: "Set an edge's (src, label, dst) triple",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := gid.ParseID(args[0])
		if err != nil {
			return err
		}
		src, err := gid.ParseID(args[1])
		if err != nil {
			return err
		}
		label := gid.HashLabel(args[2])
		dst, err := gid.ParseID(args[3])
		if err != nil {
			return err
		}

		return withWorkspace(cmd, func(w *workspace.Workspace) error {
			applied, err := w.SetEdge(id, &crdt.EdgeValue{Src: src, Label: label, Dst: dst})
			if err != nil {
				return err
			}
			fmt.Printf("applied: %t\n", applied)
			return nil
		})
	},
}

var edgeDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an edge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := gid.ParseID(args[0])
		if err != nil {
			return err
		}

		return withWorkspace(cmd, func(w *workspace.Workspace) error {
			applied, err := w.SetEdge(id, nil)
			if err != nil {
				return err
			}
			fmt.Printf("applied: %t\n", applied)
			return nil
		})
	},
}

var edgeGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print an edge's (src, label, dst) triple",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := gid.ParseID(args[0])
		if err != nil {
			return err
		}

		return withWorkspace(cmd, func(w *workspace.Workspace) error {
			v, err := w.Edge(id)
			if err != nil {
				return err
			}
			if v == nil {
				fmt.Println("(no such edge)")
				return nil
			}
			fmt.Printf("src: %s  label: %d  dst: %s\n", v.Src, v.Label, v.Dst)
			return nil
		})
	},
}

var edgeListBySrcCmd = &cobra.Command{
	Use:   "list-by-src <src>",
	Short: "List every (id, label, dst) for edges whose src is src",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := gid.ParseID(args[0])
		if err != nil {
			return err
		}

		return withWorkspace(cmd, func(w *workspace.Workspace) error {
			refs, err := w.EdgeIDLabelDstBySrc(src)
			if err != nil {
				return err
			}
			for _, ref := range refs {
				fmt.Printf("%s  label: %d  dst: %s\n", ref.ID, ref.Label, ref.Dst)
			}
			return nil
		})
	},
}

var edgeListByDstCmd = &cobra.Command{
	Use:   "list-by-dst <dst>",
	Short: "List every (id, src, label) for edges whose dst is dst",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dst, err := gid.ParseID(args[0])
		if err != nil {
			return err
		}

		return withWorkspace(cmd, func(w *workspace.Workspace) error {
			refs, err := w.EdgeIDSrcLabelByDst(dst)
			if err != nil {
				return err
			}
			for _, ref := range refs {
				fmt.Printf("%s  src: %s  label: %d\n", ref.ID, ref.Src, ref.Label)
			}
			return nil
		})
	},
}

func init() {
	edgeCmd.AddCommand(edgeSetCmd, edgeDeleteCmd, edgeGetCmd, edgeListBySrcCmd, edgeListByDstCmd)
}
