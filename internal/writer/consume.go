// internal/writer/consume.go
package writer

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/k13114/ifsmurd/internal/broadcast"
	"github.com/k13114/ifsmurd/internal/message"
	"github.com/k13114/ifsmurd/internal/observability"
)

// Consume feeds every record from sub into w until ctx ends or the channel
// closes. Lag is counted and skipped; write errors are logged.
func Consume(ctx context.Context, name string, sub *broadcast.Subscription[message.Record], w RecordWriter, logger zerolog.Logger) error {
	defer sub.Close()
	log := logger.With().Str("consumer", name).Logger()

	for {
		rec, err := sub.Recv(ctx)

		var lagged *broadcast.LaggedError
		switch {
		case errors.As(err, &lagged):
			observability.RecordLagged(name, lagged.Skipped)
			log.Warn().Uint64("skipped", lagged.Skipped).Msg("consumer lagged")
			continue
		case errors.Is(err, broadcast.ErrClosed):
			return nil
		case err != nil:
			return err
		}

		if err := w.Write(ctx, rec); err != nil {
			log.Warn().Err(err).Msg("record write failed")
		}
	}
}
