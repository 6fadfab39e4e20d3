// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package support

import "github.com/sirupsen/logrus"

// Logger is the narrow logging capability injected into the protocol
// engines. Every fatal path and state transition logs exactly one line
// through it, naming the phase and session id (spec §4.7, §7). Call sites
// never import logrus directly; this keeps the dependency confined to one
// file, the way the teacher keeps iox confined to internal.go.
type Logger interface {
	Transition(phase, sessionID, detail string)
	Fatal(phase, sessionID string, err error)
}

// LogrusLogger implements Logger over a *logrus.Logger.
type LogrusLogger struct {
	entry *logrus.Logger
}

// NewLogrusLogger returns a Logger backed by a freshly configured
// *logrus.Logger using the text formatter, matching the conventional
// setup seen across the pack's CLI entry points.
func NewLogrusLogger() *LogrusLogger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &LogrusLogger{entry: l}
}

func (l *LogrusLogger) Transition(phase, sessionID, detail string) {
	l.entry.WithFields(logrus.Fields{
		"phase":      phase,
		"session_id": sessionID,
	}).Info(detail)
}

func (l *LogrusLogger) Fatal(phase, sessionID string, err error) {
	l.entry.WithFields(logrus.Fields{
		"phase":      phase,
		"session_id": sessionID,
	}).Error(err)
}

// NopLogger discards all log lines. Useful as a default in tests that do
// not assert on logging.
type NopLogger struct{}

func (NopLogger) Transition(string, string, string) {}
func (NopLogger) Fatal(string, string, error)        {}
