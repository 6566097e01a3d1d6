// Package logger configures the process-wide apex/log handler.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
)

// Setup installs the handler named by format ("text", "json" or "cli") and
// the level named by level. Unknown values fall back to text/info.
func Setup(level, format string) {
	SetupWriter(os.Stderr, level, format)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, level, format string) {
	log.SetHandler(handlerFor(w, format))

	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

func handlerFor(w io.Writer, format string) log.Handler {
	switch strings.ToLower(format) {
	case "json":
		return json.New(w)
	case "cli":
		return cli.New(w)
	default:
		return text.New(w)
	}
}
