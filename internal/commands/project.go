package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/importer"
	"github.com/cleared-dev/tally/internal/logger"
)

// globalOptions holds the persistent flags of the root command.
type globalOptions struct {
	logLevel  string
	logPretty bool
}

// project is a loaded tally project directory.
type project struct {
	root string
	cfg  *config.Config
	log  zerolog.Logger
}

// openProject loads tally.yaml from repoDir. When optional is set a missing
// file yields the default configuration, so one-off commands work outside
// a project.
func (o *globalOptions) openProject(repoDir string, optional bool) (*project, error) {
	root, err := filepath.Abs(repoDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(filepath.Join(root, config.FileName))
	switch {
	case err == nil:
	case optional && errors.Is(err, fs.ErrNotExist):
		cfg = config.Default("", "")
	default:
		return nil, err
	}

	logCfg := logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty || o.logPretty}
	if o.logLevel != "" {
		logCfg.Level = o.logLevel
	}
	return &project{root: root, cfg: cfg, log: logger.New(logCfg)}, nil
}

func (p *project) parser() (*importer.Parser, error) {
	reg, err := p.cfg.Registry()
	if err != nil {
		return nil, err
	}
	return importer.NewParser(reg, p.log), nil
}
