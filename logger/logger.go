// Package logger provides the application logger. It discards every log
// until SetOutput is called.
package logger

import (
	"bytes"
	"io"

	"github.com/ktr0731/protoedit/meta"
	"github.com/sirupsen/logrus"
)

var (
	defaultLogger = newLogger()
	enabled       bool
)

const defaultPrefix = meta.AppName + ": "

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&prefixFormatter{
		prefix: defaultPrefix,
		Formatter: &logrus.TextFormatter{
			DisableTimestamp: true,
			DisableQuote:     true,
		},
	})
	return l
}

// prefixFormatter prepends a prefix to each formatted entry.
type prefixFormatter struct {
	logrus.Formatter
	prefix string
}

func (f *prefixFormatter) Format(e *logrus.Entry) ([]byte, error) {
	b, err := f.Formatter.Format(e)
	if err != nil {
		return nil, err
	}
	return append([]byte(f.prefix), b...), nil
}

// SetOutput enables logging to w.
func SetOutput(w io.Writer) {
	defaultLogger.SetOutput(w)
	enabled = w != io.Discard
}

func SetPrefix(p string) {
	defaultLogger.Formatter.(*prefixFormatter).prefix = p
}

// SetLevel sets the minimum level of logged entries. level is one of the
// logrus level names such as "debug", "info" or "warn".
func SetLevel(level string) error {
	lv, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	defaultLogger.SetLevel(lv)
	return nil
}

// Reset restores the initial state, which discards every log.
func Reset() {
	defaultLogger = newLogger()
	enabled = false
}

// WithFields returns an entry that logs fields with every message.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return defaultLogger.WithFields(fields)
}

func Println(v ...interface{}) {
	defaultLogger.Infoln(v...)
}

func Printf(format string, v ...interface{}) {
	defaultLogger.Infof(format, v...)
}

func Debugf(format string, v ...interface{}) {
	defaultLogger.Debugf(format, v...)
}

func Warnf(format string, v ...interface{}) {
	defaultLogger.Warnf(format, v...)
}

// Scriptln logs the values f returns. f is called only if logging is enabled,
// so expensive log values cost nothing otherwise.
func Scriptln(f func() []interface{}) {
	if !enabled {
		return
	}
	defaultLogger.Debugln(f()...)
}

// Writer returns a writer that logs each line written to it at warning level.
func Writer() io.Writer {
	return &lineWriter{}
}

type lineWriter struct {
	buf bytes.Buffer
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Keep the incomplete line for the next write.
			w.buf.WriteString(line)
			break
		}
		defaultLogger.Warn(line[:len(line)-1])
	}
	return len(p), nil
}

func Fatal(v ...interface{}) {
	defaultLogger.Fatal(v...)
}

func Fatalf(format string, v ...interface{}) {
	defaultLogger.Fatalf(format, v...)
}
