package logger

import (
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
)

// Logger accepts a message followed by any mix of error and
// map[string]interface{} arguments.
type Logger interface {
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

type Options struct {
	Token   string
	Env     string
	Host    string
	Version string
}

// RollbarLogger prints every entry to a std logger and reports warnings and
// errors to Rollbar when a token is configured.
type RollbarLogger struct {
	std *log.Logger
}

var _ Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, opts Options) *RollbarLogger {
	rollbar.SetToken(opts.Token)
	rollbar.SetEnvironment(opts.Env)
	rollbar.SetServerHost(opts.Host)
	rollbar.SetCodeVersion(opts.Version)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(opts.Token != "")
	return &RollbarLogger{std: std}
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() *RollbarLogger {
	return &RollbarLogger{std: log.New(io.Discard, "", 0)}
}

// Flush waits for queued Rollbar items to be sent.
func (l *RollbarLogger) Flush() {
	rollbar.Wait()
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.print("INFO", msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(prepare(msg, args)...)
	l.print("WARN", msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(prepare(msg, args)...)
	l.print("ERROR", msg, args)
}

// rollbar expects: error | msg, then an optional map of extras.
func prepare(msg string, args []interface{}) []interface{} {
	out := make([]interface{}, 0, len(args)+1)
	var extras map[string]interface{}
	var err error
	for _, arg := range args {
		switch v := arg.(type) {
		case error:
			err = v
		case map[string]interface{}:
			if extras == nil {
				extras = map[string]interface{}{}
			}
			for k, val := range v {
				extras[k] = val
			}
		}
	}
	if err != nil {
		if extras == nil {
			extras = map[string]interface{}{}
		}
		extras["message"] = msg
		out = append(out, err)
	} else {
		out = append(out, msg)
	}
	if extras != nil {
		out = append(out, extras)
	}
	return out
}

func (l *RollbarLogger) print(level, msg string, args []interface{}) {
	var b strings.Builder
	b.WriteString(level)
	b.WriteString(" ")
	b.WriteString(msg)
	for _, arg := range args {
		switch v := arg.(type) {
		case error:
			fmt.Fprintf(&b, " error=%q", v.Error())
		case map[string]interface{}:
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&b, " %s=%v", k, v[k])
			}
		default:
			fmt.Fprintf(&b, " %v", v)
		}
	}
	l.std.Println(b.String())
}
