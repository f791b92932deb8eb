package main

import (
	"github.com/spf13/cobra"

	"github.com/crimson-sun/modguard/internal/pipeline"
)

var classifyFlaggedOnly bool

var classifyCmd = &cobra.Command{
	Use:   "classify <text> [text...]",
	Short: "Classify one or more texts given as arguments",
	Long: `Classifies each argument and writes one verdict per argument, in argument
order. A text that cannot be classified yields a verdict with "moderated": false.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromContext(cmd.Context())
		if err != nil {
			return err
		}

		m, err := newModerator(cfg)
		if err != nil {
			return err
		}
		defer m.Close()

		out, err := newOutput(cfg, false, classifyFlaggedOnly)
		if err != nil {
			return err
		}

		p := pipeline.New(nil, m, out, pipeline.WithWorkers(cfg.Engine.Workers))
		defer p.Close()

		return p.Batch(cmd.Context(), args)
	},
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyFlaggedOnly, "flagged-only", false, "only write verdicts with labels or errors")
}
