package logging

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// DefaultLogger writes one line per record: an optional timestamp, the level
// badge, the message and error, then fields as sorted key=value pairs.
// Debug and Info go to the output sink; Warn and above go to the error sink.
type DefaultLogger struct {
	sink   *sink
	level  Level
	fields Fields
}

// sink is shared by a logger and everything derived from it with WithFields
type sink struct {
	mu         sync.Mutex
	out        io.Writer
	errOut     io.Writer
	badges     map[Level]lipgloss.Style
	color      bool
	timestamps bool
	exit       func(code int)
}

// NewDefaultLogger logs to the process's stdout and stderr with timestamps.
// Badges are colored when the sink is a terminal.
func NewDefaultLogger() *DefaultLogger {
	return NewLogger(os.Stdout, os.Stderr, InfoLevel)
}

// NewLogger logs to out and errOut, coloring badges when errOut is a terminal
func NewLogger(out, errOut io.Writer, level Level) *DefaultLogger {
	return &DefaultLogger{
		sink: &sink{
			out:        out,
			errOut:     errOut,
			badges:     badgeStyles(lipgloss.NewRenderer(errOut)),
			color:      true,
			timestamps: true,
			exit:       os.Exit,
		},
		level:  level,
		fields: make(Fields),
	}
}

// NewWriterLogger creates a plain logger without timestamps or colors.
// Fatal does not terminate the process.
func NewWriterLogger(stdout, stderr io.Writer, level Level) *DefaultLogger {
	l := NewLogger(stdout, stderr, level)
	l.sink.color = false
	l.sink.timestamps = false
	l.sink.exit = func(int) {}
	return l
}

func badgeStyles(r *lipgloss.Renderer) map[Level]lipgloss.Style {
	return map[Level]lipgloss.Style{
		DebugLevel: r.NewStyle().Faint(true),
		InfoLevel:  r.NewStyle(),
		WarnLevel:  r.NewStyle().Foreground(lipgloss.Color("3")),
		ErrorLevel: r.NewStyle().Foreground(lipgloss.Color("1")),
		FatalLevel: r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
	}
}

// format renders a record without the trailing newline; callers hold sink.mu
func (d *DefaultLogger) format(level Level, err error, msg string, extra []Fields) string {
	var b strings.Builder
	if d.sink.timestamps {
		b.WriteString(time.Now().Format("2006/01/02 15:04:05 "))
	}

	badge := "[" + level.String() + "]"
	if d.sink.color {
		badge = d.sink.badges[level].Render(badge)
	}
	b.WriteString(badge)
	b.WriteByte(' ')
	b.WriteString(msg)
	if err != nil {
		fmt.Fprintf(&b, ": %v", err)
	}

	all := d.fields
	if len(extra) > 0 {
		all = maps.Clone(d.fields)
		for _, f := range extra {
			maps.Copy(all, f)
		}
	}
	for _, k := range slices.Sorted(maps.Keys(all)) {
		v := fmt.Sprint(all[k])
		if strings.ContainsAny(v, " \t\"=") {
			v = fmt.Sprintf("%q", v)
		}
		fmt.Fprintf(&b, " %s=%s", k, v)
	}
	return b.String()
}

func (d *DefaultLogger) log(level Level, err error, msg string, fields []Fields) {
	if level < d.level {
		return
	}
	w := d.sink.out
	if level >= WarnLevel {
		w = d.sink.errOut
	}

	d.sink.mu.Lock()
	_, _ = io.WriteString(w, d.format(level, err, msg, fields)+"\n")
	d.sink.mu.Unlock()

	if level == FatalLevel {
		d.sink.exit(1)
	}
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) { d.log(DebugLevel, nil, msg, fields) }
func (d *DefaultLogger) Info(msg string, fields ...Fields)  { d.log(InfoLevel, nil, msg, fields) }
func (d *DefaultLogger) Warn(msg string, fields ...Fields)  { d.log(WarnLevel, nil, msg, fields) }

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	d.log(ErrorLevel, err, msg, fields)
}

// Fatal logs and exits with status 1; writer loggers only log
func (d *DefaultLogger) Fatal(err error, msg string, fields ...Fields) {
	d.log(FatalLevel, err, msg, fields)
}

// WithFields returns a logger sharing this one's sinks with fields merged in
func (d *DefaultLogger) WithFields(fields Fields) Logger {
	merged := maps.Clone(d.fields)
	maps.Copy(merged, fields)
	return &DefaultLogger{sink: d.sink, level: d.level, fields: merged}
}

func (d *DefaultLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := fieldsFromContext(ctx); ok {
		return d.WithFields(fields)
	}
	return d
}

func (d *DefaultLogger) SetLevel(level Level) {
	d.level = level
}

func (d *DefaultLogger) setColor(on bool) {
	d.sink.mu.Lock()
	d.sink.color = on
	d.sink.mu.Unlock()
}

// NoOpLogger discards everything
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n *NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) Fatal(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) WithFields(fields Fields) Logger               { return n }
func (n *NoOpLogger) WithContext(ctx context.Context) Logger        { return n }
func (n *NoOpLogger) SetLevel(level Level)                          {}
