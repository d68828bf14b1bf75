package main

import (
	"fmt"

	"github.com/cuemby/graphstore/pkg/crdt"
	"github.com/cuemby/graphstore/pkg/gid"
	"github.com/cuemby/graphstore/pkg/workspace"
	"github.com/spf13/cobra"
)

var atomCmd = &cobra.Command{
	Use:   "atom",
	Short: "Inspect and mutate the atom set",
}

var atomSetCmd = &cobra.Command{
	Use:   "set <id> <src> <label> <value>",
	Short: "Set an atom's (src, label, value) triple",
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
		value := []byte(args[3])

		return withWorkspace(cmd, func(w *workspace.Workspace) error {
			applied, err := w.SetAtom(id, &crdt.AtomValue{Src: src, Label: label, Value: value})
			if err != nil {
				return err
			}
			fmt.Printf("applied: %t\n", applied)
			return nil
		})
	},
}

var atomDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an atom",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := gid.ParseID(args[0])
		if err != nil {
			return err
		}

		return withWorkspace(cmd, func(w *workspace.Workspace) error {
			applied, err := w.SetAtom(id, nil)
			if err != nil {
				return err
			}
			fmt.Printf("applied: %t\n", applied)
			return nil
		})
	},
}

var atomGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print an atom's (src, label, value) triple",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := gid.ParseID(args[0])
		if err != nil {
			return err
		}

		return withWorkspace(cmd, func(w *workspace.Workspace) error {
			v, err := w.Atom(id)
			if err != nil {
				return err
			}
			if v == nil {
				fmt.Println("(no such atom)")
				return nil
			}
			fmt.Printf("src: %s  label: %d  value: %s\n", v.Src, v.Label, v.Value)
			return nil
		})
	},
}

var atomListBySrcCmd = &cobra.Command{
	Use:   "list-by-src <src>",
	Short: "List every (id, label, value) for atoms whose src is src",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := gid.ParseID(args[0])
		if err != nil {
			return err
		}

		return withWorkspace(cmd, func(w *workspace.Workspace) error {
			refs, err := w.AtomIDLabelValueBySrc(src)
			if err != nil {
				return err
			}
			for _, ref := range refs {
				fmt.Printf("%s  label: %d  value: %s\n", ref.ID, ref.Label, ref.Value)
			}
			return nil
		})
	},
}

func init() {
	atomCmd.AddCommand(atomSetCmd, atomDeleteCmd, atomGetCmd, atomListBySrcCmd)
}
