package opts

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/walteh/qgzedit/pkg/config"
	"gitlab.com/tozd/go/errors"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	ConfigFile string
	Debug      bool
	JSONLogs   bool

	Stdout io.Writer
	Stderr io.Writer
}

// New returns options writing to the process streams
func New() *RootOpts {
	return &RootOpts{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Logger builds the zerolog logger selected by the flags. Human output goes
// to Stdout through the console sink, so the logger stays quiet unless asked.
func (o *RootOpts) Logger() zerolog.Logger {
	level := zerolog.WarnLevel
	if o.JSONLogs {
		level = zerolog.InfoLevel
	}
	if o.Debug {
		level = zerolog.DebugLevel
	}

	if o.JSONLogs {
		return zerolog.New(o.Stderr).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: o.Stderr}).Level(level).With().Timestamp().Logger()
}

// LoadConfig loads the config file named by --config
func (o *RootOpts) LoadConfig(ctx context.Context, overrides ...config.Override) (*config.Config, error) {
	cfg, err := config.Load(ctx, o.ConfigFile, overrides...)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return cfg, nil
}
