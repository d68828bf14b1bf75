package main

import (
	"fmt"
	"os"

	"github.com/cuemby/graphstore/pkg/workspace"
	"github.com/spf13/cobra"
)

var syncVersionCmd = &cobra.Command{
	Use:   "sync-version <out-file>",
	Short: "Write this workspace's version snapshot to out-file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, func(w *workspace.Workspace) error {
			data, err := w.SyncVersion()
			if err != nil {
				return err
			}
			return os.WriteFile(args[0], data, 0600)
		})
	},
}

var syncActionsCmd = &cobra.Command{
	Use:   "sync-actions <peer-version-file> <out-file>",
	Short: "Compute every action this workspace has that peer-version-file lacks, writing them to out-file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		peerVersion, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		return withWorkspace(cmd, func(w *workspace.Workspace) error {
			data, err := w.SyncActions(peerVersion)
			if err != nil {
				return err
			}
			return os.WriteFile(args[1], data, 0600)
		})
	},
}

var syncJoinCmd = &cobra.Command{
	Use:   "sync-join <peer-actions-file>",
	Short: "Replay a peer's action set into this workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		peerActions, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		return withWorkspace(cmd, func(w *workspace.Workspace) error {
			if err := w.SyncJoin(peerActions); err != nil {
				return err
			}
			fmt.Println("joined; run barrier to restore invariants")
			return nil
		})
	},
}
