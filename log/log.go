// Package log wraps logrus with the handful of extras the protocol cores need:
// a file-backed hook that can be reopened (for logrotate-style rotation),
// a per-connection field helper, and a small dest-string cache so repeated
// GetLogger(dest) calls for the same destination share one logger.
package log

import (
	"io"
	"net"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is the logging contract held by the smtp, imap and pop3 connection
// types. It is satisfied by *HookedLogger.
type Logger interface {
	logrus.FieldLogger
	WithConn(conn net.Conn) *logrus.Entry
	Reopen() error
	GetLogDest() string
	SetLevel(level string)
	GetLevel() string
	IsDebug() bool
	AddHook(h logrus.Hook)
}

// HookedLogger implements Logger. It's a logrus logger wrapper that owns a
// LogrusHook responsible for the actual destination (file/stdout/stderr/off).
type HookedLogger struct {
	*logrus.Logger

	h LoggerHook
}

type loggerCache map[string]Logger

var loggers struct {
	cache loggerCache
	sync.Mutex
}

// GetLogger returns a Logger writing to dest, creating and caching one if
// this is the first call for that destination.
//
// dest can be a path to a file, or one of:
//
//	"off"    - disable any log output
//	"stdout" - write to standard output
//	"stderr" - write to standard error
//
// If the file doesn't exist it is created, otherwise it's appended to.
// On error the returned logger still works, falling back to stderr.
func GetLogger(dest string) (Logger, error) {
	loggers.Lock()
	defer loggers.Unlock()
	if loggers.cache == nil {
		loggers.cache = make(loggerCache, 1)
	} else if l, ok := loggers.cache[dest]; ok {
		return l, nil
	}

	lr := logrus.New()
	// the hook does the actual writing
	lr.Out = io.Discard
	l := &HookedLogger{Logger: lr}
	loggers.cache[dest] = l

	h, err := NewLogrusHook(dest)
	if err != nil {
		lr.Out = os.Stderr
		return l, err
	}
	lr.Hooks.Add(h)
	l.h = h
	return l, nil
}

func (l *HookedLogger) AddHook(h logrus.Hook) {
	l.Logger.AddHook(h)
}

func (l *HookedLogger) IsDebug() bool {
	return l.GetLevel() == logrus.DebugLevel.String()
}

// SetLevel sets the log level by name; invalid names are ignored.
func (l *HookedLogger) SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return
	}
	l.Level = lvl
}

func (l *HookedLogger) GetLevel() string {
	return l.Level.String()
}

// Reopen closes and reopens the underlying log file, e.g. after logrotate(8)
// has renamed it out from under the running process.
func (l *HookedLogger) Reopen() error {
	return l.h.Reopen()
}

func (l *HookedLogger) GetLogDest() string {
	return l.h.GetLogDest()
}

// WithConn extends the logger with the remote address of a connection
// ("unknown" for a nil conn), so log lines can be tagged with the socket
// they concern.
func (l *HookedLogger) WithConn(conn net.Conn) *logrus.Entry {
	addr := "unknown"
	if conn != nil {
		addr = conn.RemoteAddr().String()
	}
	return l.WithField("addr", addr)
}
