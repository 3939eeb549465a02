// Package gate decides whether canary output is written, and writes it to the
// application logs and the console.
package gate

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tipee-sa/canary"
)

const timeLayout = "2006/01/02 15:04:05.000"

// Frames between resolving the call site and the caller of a public Output
// method.
const callerSkip = 3

// Canary writes rendered variables when its configuration admits it. It is
// safe for concurrent use.
type Canary struct {
	cfg       Config
	logger    *zap.Logger
	console   io.Writer
	consoleMu sync.Mutex
	stamp     *color.Color
	now       func() time.Time

	toLogs    bool
	toConsole bool
	muted     atomic.Bool
}

type Option func(*Canary)

// WithLogger sets the application logger. Its level decides whether output
// goes to the application logs.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Canary) {
		c.logger = logger
	}
}

// WithConsole sets the console stream, os.Stdout by default.
func WithConsole(w io.Writer) Option {
	return func(c *Canary) {
		c.console = w
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Canary) {
		c.now = now
	}
}

func New(cfg Config, opts ...Option) *Canary {
	c := &Canary{
		cfg:     cfg,
		logger:  zap.NewNop(),
		console: os.Stdout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.cfg.MaxLength <= 0 {
		c.cfg.MaxLength = canary.DefaultMaxLength
	}

	c.toLogs = cfg.WriteToApplicationLogs && admits(cfg.Level, c.logger.Core())
	c.toConsole = cfg.WriteToStandardOutput && cfg.Level != LevelOff
	c.muted.Store(!c.toLogs && !c.toConsole)

	c.stamp = color.New(color.Faint)
	if isTerminal(c.console) {
		c.stamp.EnableColor()
	} else {
		c.stamp.DisableColor()
	}
	return c
}

// admits reports whether an application log at core's level takes output
// written at level.
func admits(level Level, core zapcore.Core) bool {
	switch level {
	case LevelOff:
		return false
	case LevelAll:
		return true
	}
	return core.Enabled(level.ZapLevel())
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (c *Canary) Config() Config {
	return c.cfg
}

// Enabled reports whether output may be written. Check it before building
// expensive values.
func (c *Canary) Enabled() bool {
	return !c.muted.Load()
}

// Mute stops all output until Unmute is called.
func (c *Canary) Mute() {
	c.muted.Store(true)
}

func (c *Canary) Unmute() {
	c.muted.Store(false)
}

// Output writes "<identifier>: <representation of value>".
func (c *Canary) Output(identifier string, value any) {
	c.output(c.logger, identifier, value)
}

// OutputWith is Output, writing application logs to logger instead.
func (c *Canary) OutputWith(logger *zap.Logger, identifier string, value any) {
	c.output(logger, identifier, value)
}

// OutputText writes text as is, truncated like any other line.
func (c *Canary) OutputText(text string) {
	c.outputText(c.logger, text)
}

func (c *Canary) OutputTextWith(logger *zap.Logger, text string) {
	c.outputText(logger, text)
}

func (c *Canary) output(logger *zap.Logger, identifier string, value any) {
	if !c.Enabled() {
		return
	}
	defer c.recover(identifier)

	line, err := canary.Render(identifier, value, c.cfg.MaxLength)
	if err != nil {
		c.logger.Warn("Canary output failed", zap.String("identifier", identifier), zap.Error(err))
		return
	}
	c.deliver(logger, line)
}

func (c *Canary) outputText(logger *zap.Logger, text string) {
	if !c.Enabled() {
		return
	}
	defer c.recover("")

	c.deliver(logger, canary.Truncate(text, c.cfg.MaxLength))
}

// recover keeps rendering failures away from the caller.
func (c *Canary) recover(identifier string) {
	if p := recover(); p != nil {
		c.logger.Warn("Canary output panicked", zap.String("identifier", identifier), zap.Any("panic", p))
	}
}

func (c *Canary) deliver(logger *zap.Logger, text string) {
	if c.toConsole {
		site := callSite(callerSkip)
		stamp := c.stamp.Sprint(c.now().Format(timeLayout))

		c.consoleMu.Lock()
		_, err := fmt.Fprintf(c.console, "%s %s: %s\n", stamp, site, text)
		c.consoleMu.Unlock()
		if err != nil {
			c.logger.Warn("Canary console write failed", zap.Error(err))
		}
	}

	if c.toLogs {
		if logger == nil {
			logger = c.logger
		}
		if ce := logger.Check(c.cfg.Level.ZapLevel(), text); ce != nil {
			ce.Write()
		}
	}
}

// callSite returns "<package>.<function>.<line>" for the frame skip levels
// above its caller.
func callSite(skip int) string {
	pc, _, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "unknown"
	}
	name := "unknown"
	if fn := runtime.FuncForPC(pc); fn != nil {
		name = fn.Name()
		if i := strings.LastIndexByte(name, '/'); i >= 0 {
			name = name[i+1:]
		}
	}
	return fmt.Sprintf("%s.%d", name, line)
}
