package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/shinji-kodama/testlaunch/internal/doctor"
)

// console writes human-facing messages. Colors are used only when the
// target stream is a terminal and NO_COLOR is unset.
type console struct {
	out io.Writer
	err io.Writer

	successColor *color.Color
	errorColor   *color.Color
	failureColor *color.Color
	warningColor *color.Color
	infoColor    *color.Color
	mutedColor   *color.Color
}

func newConsole(out, err io.Writer) *console {
	c := &console{
		out:          out,
		err:          err,
		successColor: color.New(color.FgGreen),
		errorColor:   color.New(color.FgRed),
		failureColor: color.New(color.FgRed),
		warningColor: color.New(color.FgYellow),
		infoColor:    color.New(color.FgCyan),
		mutedColor:   color.New(color.FgHiBlack),
	}

	// Colors are decided per stream instead of through color.NoColor so
	// that a redirected stdout does not strip colors from a terminal stderr.
	outColors := colorEnabled(out)
	for _, tone := range []*color.Color{c.successColor, c.failureColor, c.warningColor, c.infoColor, c.mutedColor} {
		setColor(tone, outColors)
	}
	setColor(c.errorColor, colorEnabled(err))

	return c
}

func setColor(tone *color.Color, enabled bool) {
	if enabled {
		tone.EnableColor()
	} else {
		tone.DisableColor()
	}
}

// colorEnabled reports whether w is a terminal that accepts colors.
func colorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false
	}
	// https://no-color.org/
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// Info writes an informational line to stdout.
func (c *console) Info(format string, args ...interface{}) {
	c.infoColor.Fprintln(c.out, fmt.Sprintf(format, args...))
}

// Success writes a line prefixed with a check mark to stdout.
func (c *console) Success(format string, args ...interface{}) {
	c.status(c.successColor, doctor.StatusPass.Symbol(), format, args...)
}

// Warning writes a line prefixed with a warning mark to stdout.
func (c *console) Warning(format string, args ...interface{}) {
	c.status(c.warningColor, doctor.StatusWarn.Symbol(), format, args...)
}

// Failure writes a line prefixed with an X mark to stdout. Doctor reports
// stay on one stream so they read in order when piped.
func (c *console) Failure(format string, args ...interface{}) {
	c.status(c.failureColor, doctor.StatusFail.Symbol(), format, args...)
}

// Muted writes dimmed text to stdout.
func (c *console) Muted(format string, args ...interface{}) {
	c.mutedColor.Fprintln(c.out, fmt.Sprintf(format, args...))
}

// Println writes a plain line to stdout.
func (c *console) Println(args ...interface{}) {
	fmt.Fprintln(c.out, args...)
}

// Printf writes plain formatted text to stdout.
func (c *console) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

// Errorf writes an error line to stderr.
func (c *console) Errorf(format string, args ...interface{}) {
	c.errorColor.Fprintln(c.err, fmt.Sprintf(format, args...))
}

// PrintJSON writes v to stdout as indented JSON.
func (c *console) PrintJSON(v interface{}) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *console) status(tone *color.Color, prefix, format string, args ...interface{}) {
	tone.Fprint(c.out, prefix+" ")
	fmt.Fprintln(c.out, fmt.Sprintf(format, args...))
}
