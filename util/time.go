package util

import (
	"context"
	"time"

	"github.com/mikeydub/go-gallery-layout/service/logger"
)

// Track logs the time it took to execute a function
func Track(ctx context.Context, s string, startTime time.Time) {
	logger.For(ctx).Infof("%s took %v", s, time.Since(startTime))
}
