// Package publish moves finished archives into the output tree. The move is
// the sole visible mutation: the final path never holds a partially written
// archive.
package publish

import (
	"errors"
	"log/slog"
	"os"
	"syscall"

	"mangasync/internal/fileutil"
	"mangasync/internal/logging"
	"mangasync/internal/services"
)

// Publish renames tempArchive to finalPath, falling back to a copy when the
// rename fails (typically a cross-device move). The temp file is left for the
// caller's temp-directory cleanup when the copy path is taken.
func Publish(logger *slog.Logger, tempArchive, finalPath string) error {
	renameErr := os.Rename(tempArchive, finalPath)
	if renameErr == nil {
		return nil
	}

	var linkErr *os.LinkError
	if logger != nil && errors.As(renameErr, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
		logger.Debug("cross-device publish, copying instead", logging.String("path", finalPath))
	}

	if copyErr := fileutil.CopyFile(tempArchive, finalPath); copyErr != nil {
		return services.Wrap(services.ErrTransient, "publish", "copy archive", finalPath, copyErr)
	}
	return nil
}
