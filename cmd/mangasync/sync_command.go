package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mangasync/internal/logging"
	"mangasync/internal/services"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync [manga-id...]",
		Short: "Mirror manga into the local archive tree",
		Long: "Mirror every listed manga into the output directory. With no " +
			"arguments the manga list from the configuration file is synced.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			ids := args
			if len(ids) == 0 {
				ids = cfg.Manga
			}
			if len(ids) == 0 {
				return errors.New("no manga ids given and none configured under `manga` in the config file")
			}

			rt, err := newRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.close()

			var failures []error
			for _, id := range ids {
				err := rt.syncer.SyncManga(cmd.Context(), id)
				if err == nil {
					continue
				}
				if errors.Is(err, services.ErrClosed) {
					return err
				}
				rt.logger.Error("manga sync failed",
					logging.String("manga_id", id),
					logging.Error(err),
				)
				failures = append(failures, fmt.Errorf("manga %s: %w", id, err))
			}
			return errors.Join(failures...)
		},
	}
}
