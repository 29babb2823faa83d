package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vamana"
)

type globalFlags struct {
	verbose bool
	json    bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "vamana",
		Short:         "Vamana graph index tool",
		Long:          `vamana builds graph indexes from DiskANN .bin files, queries them and reports recall.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log index operations to stderr")
	root.PersistentFlags().BoolVar(&g.json, "json", false, "print results as JSON")

	root.AddCommand(
		newBuildCmd(g),
		newSearchCmd(g),
		newRecallCmd(g),
		newInfoCmd(g),
	)
	return root
}

func (g *globalFlags) logger() *vamana.Logger {
	if !g.verbose {
		return vamana.NoopLogger()
	}
	return vamana.NewTextLogger(slog.LevelInfo)
}
