package testlog

import (
	"testing"

	"github.com/danmuck/ndefsync/internal/logging"
	"github.com/danmuck/ndefsync/internal/logs"
)

func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
	logs.Infof("test=%s", t.Name())
}
