package observability

import (
	"github.com/danmuck/ndefsync/internal/logs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger derives an app-tagged logger from the configured facade and
// installs it as the zerolog global, which gin middleware and libraries
// logging through zerolog/log pick up.
func InitLogger(app string) zerolog.Logger {
	logger := logs.Logger().With().Str("app", app).Logger()
	log.Logger = logger
	return logger
}
