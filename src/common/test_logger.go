package common

import (
	"testing"

	"github.com/sirupsen/logrus"
)

// testLoggerAdapter routes log output through testing.TB.Log, so log lines
// only surface for failing tests.
type testLoggerAdapter struct {
	t testing.TB
}

func (a *testLoggerAdapter) Write(d []byte) (int, error) {
	if len(d) > 0 && d[len(d)-1] == '\n' {
		d = d[:len(d)-1]
	}
	a.t.Log(string(d))
	return len(d), nil
}

// NewTestLogger returns a debug-level logrus Logger whose output goes to the
// test's log. Passing it to the component under test keeps `go test` output
// quiet while preserving a full protocol trace on failures.
func NewTestLogger(t testing.TB) *logrus.Logger {
	logger := logrus.New()
	logger.Out = &testLoggerAdapter{t: t}
	logger.Level = logrus.DebugLevel
	return logger
}
