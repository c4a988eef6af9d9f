package download

import (
	"context"
	"errors"
	"io"
	"os"

	"mangasync/internal/logging"
	"mangasync/internal/services"
)

// pageRetries is the number of additional attempts after a failed page fetch.
const pageRetries = 3

// fetchPage retrieves one remote page into dest, retrying the entire fetch
// with no backoff. The last error is surfaced when all attempts fail.
func (p *Pipeline) fetchPage(ctx context.Context, pageURL, dest string) error {
	var lastErr error
	for attempt := 0; attempt <= pageRetries; attempt++ {
		if err := p.token.Err(); err != nil {
			return err
		}
		err := p.fetchOnce(ctx, pageURL, dest)
		if err == nil {
			return nil
		}
		if errors.Is(err, services.ErrClosed) {
			return err
		}
		lastErr = err
		if attempt < pageRetries {
			p.logger.Error("retrying page download",
				logging.String("url", pageURL),
				logging.Int("attempt", attempt+1),
				logging.Error(err),
			)
		}
	}
	return lastErr
}

func (p *Pipeline) fetchOnce(ctx context.Context, pageURL, dest string) error {
	resp, err := p.client.Page(ctx, pageURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	file, err := os.Create(dest)
	if err != nil {
		return services.Wrap(services.ErrTransient, "fetch", "create page file", dest, err)
	}

	written, copyErr := io.Copy(file, resp.Body)
	closeErr := file.Close()
	if copyErr != nil {
		return services.Wrap(services.ErrTransient, "fetch", "write page", dest, copyErr)
	}
	if closeErr != nil {
		return services.Wrap(services.ErrTransient, "fetch", "close page file", dest, closeErr)
	}
	// Zero bytes means an upstream fault, not success.
	if written == 0 {
		return services.Wrap(services.ErrTransient, "fetch", "write page", "wrote empty file to "+dest, nil)
	}
	return nil
}
