package calculation

import "github.com/sirupsen/logrus"

// Logger is a minimal logging interface for the calculation engine.
// *logrus.Logger and *logrus.Entry satisfy it; the default is a no-op.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger implements Logger with no output.
type NopLogger struct{}

func (NopLogger) Debugf(format string, args ...any) {}
func (NopLogger) Infof(format string, args ...any)  {}
func (NopLogger) Warnf(format string, args ...any)  {}
func (NopLogger) Errorf(format string, args ...any) {}

// withRun tags log lines with the run ID when the logger carries fields.
func withRun(l Logger, runID string) Logger {
	if fl, ok := l.(logrus.FieldLogger); ok {
		return fl.WithField("run_id", runID)
	}
	return l
}
