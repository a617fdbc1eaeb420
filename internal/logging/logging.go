package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the name of the rotating log file inside the logs folder
const FileName = "strava-filter.log"

// Options controls where log output goes
type Options struct {
	Verbose bool
	// Dir is the folder for the rotating log file. Empty disables the file sink.
	Dir string
	// Console defaults to os.Stderr
	Console io.Writer
}

// Init builds a logger from opts and installs it as the global zerolog logger
func Init(opts Options) error {
	logger, err := New(opts)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level(opts.Verbose))
	log.Logger = logger
	return nil
}

// New builds a logger writing to the console and, when opts.Dir is set,
// to a size-rotated file
func New(opts Options) (zerolog.Logger, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal(console),
	}}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return zerolog.Nop(), fmt.Errorf("creating log directory %q: %w", opts.Dir, err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, FileName),
			MaxSize:    16, // megabytes
			MaxBackups: 8,
			MaxAge:     90, // days
			Compress:   true,
		})
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level(opts.Verbose)).
		With().
		Timestamp().
		Logger(), nil
}

func level(verbose bool) zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
