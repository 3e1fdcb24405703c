package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// NewObserverLogger returns a logger that records every entry it is given in
// memory, together with the recorder, for asserting on log output in tests.
// An unparseable level falls back to debug so nothing gets dropped.
func NewObserverLogger(level string) (*ZapLogger, *observer.ObservedLogs) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		lvl = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	core, logs := observer.New(lvl)

	return &ZapLogger{zap.New(core)}, logs
}
