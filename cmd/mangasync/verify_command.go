package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var printValid bool
	var printUnmatched bool

	cmd := &cobra.Command{
		Use:   "verify <manga-id>",
		Short: "Compare local archives against the remote chapter list",
		Long: "List which archives in a manga's directory still match a chapter " +
			"on the remote feed and which are stale or foreign. Nothing is " +
			"downloaded or deleted.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			rt, err := newRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.close()

			report, err := rt.syncer.Verify(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case printValid:
				for _, name := range report.Valid {
					fmt.Fprintln(out, name)
				}
			case printUnmatched:
				for _, name := range report.Unmatched {
					fmt.Fprintln(out, name)
				}
			default:
				rows := make([][]string, 0, len(report.Valid)+len(report.Unmatched))
				for _, name := range report.Valid {
					rows = append(rows, []string{name, "valid"})
				}
				for _, name := range report.Unmatched {
					rows = append(rows, []string{name, "unmatched"})
				}
				fmt.Fprintf(out, "%s\n", report.MangaDir)
				fmt.Fprintln(out, tableOutput([]string{"File", "Status"}, rows))
				fmt.Fprintf(out, "%d valid, %d unmatched\n", len(report.Valid), len(report.Unmatched))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&printValid, "print-valid", false, "Print only matching archive filenames")
	cmd.Flags().BoolVar(&printUnmatched, "print-unmatched", false, "Print only unmatched filenames")
	return cmd
}
