package main

import (
	"fmt"
	"os"

	"github.com/cuemby/graphstore/pkg/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "graphstore",
	Short: "graphstore - an embedded, offline-first CRDT graph store",
	Long: `graphstore drives a single embedded graph workspace: a property
graph of nodes, atoms and edges, replicated between offline peers via
a three-step sync protocol and kept structurally sound by a barrier
fixed point.

Each invocation opens the workspace file named by --workspace,
performs one operation, commits, and closes.`,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("workspace", "graphstore.db", "Path to the workspace file")
	rootCmd.PersistentFlags().String("constraints", "", "Path to a YAML constraints document (sticky/acyclic labels)")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(atomCmd)
	rootCmd.AddCommand(edgeCmd)
	rootCmd.AddCommand(barrierCmd)
	rootCmd.AddCommand(syncVersionCmd)
	rootCmd.AddCommand(syncActionsCmd)
	rootCmd.AddCommand(syncJoinCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}
