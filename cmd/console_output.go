package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// DebugEnv enables stack traces and full event dumps in console output
const DebugEnv = "CAPTAIN_DEBUG"

// ConsoleWriter renders zerolog's JSON events as coloured lines
type ConsoleWriter struct {
	out    io.Writer
	buffer strings.Builder
	lock   sync.Mutex
}

func NewConsoleWriter(out io.Writer) *ConsoleWriter {
	return &ConsoleWriter{out: out}
}

func (w *ConsoleWriter) Write(p []byte) (n int, err error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	var evt map[string]interface{}
	d := json.NewDecoder(bytes.NewReader(p))
	d.UseNumber()
	err = d.Decode(&evt)
	if err != nil {
		return n, eris.Wrapf(err, "cannot decode event: %s", p)
	}

	w.buffer.Reset()
	switch evt["level"] {
	case "fatal", "error":
		w.buffer.WriteString("[red]")
	case "warn":
		w.buffer.WriteString("[yellow]")
	case "debug", "trace":
		w.buffer.WriteString("[blue]")
	default:
		w.buffer.WriteString("[green]")
	}

	for _, prefix := range []string{"task", "project"} {
		if value, ok := evt[prefix].(string); ok {
			w.buffer.WriteString(value + ": ")
		}
	}

	if evt["level"] == "error" {
		w.buffer.WriteString("Error: ")
	}

	msg, _ := evt["message"].(string)
	if path, ok := evt["path"].(string); ok {
		relPath, err := filepath.Rel(".", path)
		if err == nil && !strings.HasPrefix(relPath, "..") {
			msg = strings.ReplaceAll(msg, path, relPath)
		}
	}
	w.buffer.WriteString(msg)

	if errorDetails, ok := evt["error"].(string); ok {
		w.buffer.WriteString("\n")
		w.buffer.WriteString(errorDetails)
	}

	if os.Getenv(DebugEnv) != "" {
		names := make([]string, 0, len(evt))
		for name := range evt {
			names = append(names, name)
		}
		sort.Strings(names)

		w.buffer.WriteString("\n")
		for _, name := range names {
			w.buffer.WriteString(fmt.Sprintf("  %s: %+v\n", name, evt[name]))
		}
	}

	w.buffer.WriteString("[reset]\n")
	if _, err := colorstring.Fprint(w.out, w.buffer.String()); err != nil {
		return 0, err
	}
	return len(p), nil
}

func init() {
	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		return eris.ToString(err, os.Getenv(DebugEnv) != "")
	}
}
