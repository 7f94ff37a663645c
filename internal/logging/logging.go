// Package logging wires a zap/logr/zapr stack into a sandbox with no
// filesystem: instead of a file OutputPaths entry, a zapcore.WriteSyncer
// forwards each encoded line to the host's logMessage import via
// hostabi.Host.
package logging

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dc4eu/credmatcher/internal/hostabi"
)

// Log is a portable wrapper around logr.Logger.
type Log struct {
	logr.Logger
}

// New builds a logger that writes every encoded line to host.LogMessage.
func New(name string, host hostabi.Host) *Log {
	sink := &hostSink{host: host}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = ""
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	// zapr maps logr V(n) to zap level -n; -2 lets Trace (V(2)) through.
	core := zapcore.NewCore(encoder, sink, zapcore.Level(-2))
	z := zap.New(core)

	return &Log{Logger: zapr.NewLogger(z).WithName(name)}
}

// New creates a named sub-logger of the original one.
func (l *Log) New(path string) *Log {
	return &Log{Logger: l.WithName(path)}
}

// Info log (V(0)).
func (l *Log) Info(msg string, args ...interface{}) {
	l.Logger.V(0).WithValues(args...).Info(msg)
}

// Debug log (V(1)).
func (l *Log) Debug(msg string, args ...interface{}) {
	l.Logger.V(1).WithValues(args...).Info(msg)
}

// Trace log (V(2)).
func (l *Log) Trace(msg string, args ...interface{}) {
	l.Logger.V(2).WithValues(args...).Info(msg)
}

// hostSink implements zapcore.WriteSyncer over hostabi.Host.LogMessage.
// There is nothing to sync: each write is already a single host call.
type hostSink struct {
	host hostabi.Host
}

func (s *hostSink) Write(p []byte) (int, error) {
	s.host.LogMessage(hostabi.LogInfo, string(p))
	return len(p), nil
}

func (s *hostSink) Sync() error { return nil }
