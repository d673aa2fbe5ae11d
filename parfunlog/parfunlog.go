// Package parfunlog provides the shared structured logger used across the
// engine's packages.
package parfunlog

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once   sync.Once
	global *zap.SugaredLogger
)

// Default returns the process-wide sugared logger, constructing it on
// first use with a production configuration.
func Default() *zap.SugaredLogger {
	once.Do(func() {
		logger, err := zap.NewProduction()
		if err != nil {
			logger = zap.NewNop()
		}
		global = logger.Sugar()
	})
	return global
}

// SetDefault overrides the process-wide logger, e.g. to install a
// development logger in tests.
func SetDefault(logger *zap.SugaredLogger) {
	global = logger
	once.Do(func() {})
}
