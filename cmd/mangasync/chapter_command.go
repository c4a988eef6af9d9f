package main

import (
	"github.com/spf13/cobra"
)

func newChapterCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "chapter <chapter-id>...",
		Short: "Download individual chapters by id",
		Args:  cobra.MinimumNArgs(1),
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

			for _, id := range args {
				if err := rt.syncer.SyncChapter(cmd.Context(), id); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
