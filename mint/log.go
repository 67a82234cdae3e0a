package mint

import "github.com/ordwallet/batchmint/pkg/logging"

// componentLogger returns log.Component(name), falling back to the
// package default logger's own component when the caller didn't
// supply one (e.g. in tests that don't care about log output).
func componentLogger(log *logging.Logger, name string) *logging.Logger {
	if log == nil {
		return logging.Default().Component(name)
	}
	return log.Component(name)
}
