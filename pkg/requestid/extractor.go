package requestid

import (
	"context"
	"log/slog"
)

// LoggerExtractor returns a context extractor for the logger that attaches
// the current request ID to log records.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := FromContext(ctx); id != "" {
			return slog.String("request_id", id), true
		}
		return slog.Attr{}, false
	}
}
