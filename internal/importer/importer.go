package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/tally/internal/model"
)

// ParseError reports a statement that could not be parsed at all.
type ParseError struct {
	File   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %s", e.File, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parser turns raw statement files into ParsedStatements.
type Parser struct {
	templates *Registry
	log       zerolog.Logger
}

// NewParser creates a parser over reg. A nil registry means DefaultRegistry.
func NewParser(reg *Registry, log zerolog.Logger) *Parser {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Parser{
		templates: reg,
		log:       log.With().Str("component", "importer").Logger(),
	}
}

// Parse parses one raw statement with the named template ("" = generic).
// Row-level problems are returned as warnings on the statement; a
// ParseError means nothing usable could be read.
func (p *Parser) Parse(raw model.RawStatement, template string) (*model.ParsedStatement, error) {
	name := raw.Name
	if name == "" {
		name = "statement"
	}
	fail := func(err error) error {
		return &ParseError{File: name, Reason: err.Error(), Err: err}
	}

	if template == "" {
		template = GenericTemplate
	}
	base, ok := p.templates.Get(template)
	if !ok {
		return nil, fail(fmt.Errorf("unknown template %q", template))
	}
	tmpl := base.resolved()

	if len(raw.Data) == 0 {
		return nil, fail(fmt.Errorf("empty file"))
	}

	format := raw.Format
	if format == model.FormatUnknown {
		format = Detect(raw.Name, raw.Data)
	}
	if tmpl.Format != model.FormatUnknown && tmpl.Format != format {
		return nil, fail(fmt.Errorf("template %s expects %s input, got %s", tmpl.Name, tmpl.Format, format))
	}

	var ext *extraction
	var err error
	switch format {
	case model.FormatDelimited:
		ext, err = extractDelimited(raw.Data, &tmpl)
	case model.FormatSpreadsheet:
		ext, err = extractSpreadsheet(raw.Data, &tmpl)
	case model.FormatDocument:
		ext, err = extractDocument(raw.Data, &tmpl)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, fail(err)
	}

	for _, w := range ext.ignored {
		p.log.Debug().Str("file", name).Str("ref", w.SourceRef).Msgf("ignored line: %s", w.Message)
	}
	stmt, err := normalize(ext, &tmpl)
	if err != nil {
		return nil, fail(err)
	}
	stmt.File = name
	stmt.Format = format

	for _, w := range stmt.Warnings {
		p.log.Debug().Str("file", name).Str("ref", w.SourceRef).Msg(w.Message)
	}
	p.log.Debug().
		Str("file", name).
		Str("format", string(format)).
		Str("template", tmpl.Name).
		Int("transactions", len(stmt.Transactions)).
		Int("skipped", stmt.Skipped).
		Msg("parsed statement")
	return stmt, nil
}

// ParseFile reads and parses a statement from disk, detecting its format.
func (p *Parser) ParseFile(path, template string) (*model.ParsedStatement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading statement: %w", err)
	}
	return p.Parse(model.RawStatement{Name: filepath.Base(path), Data: data}, template)
}

// Source names one file for ParseAll.
type Source struct {
	Path     string
	Template string
}

// Result is the outcome of parsing one Source.
type Result struct {
	Source    Source
	Statement *model.ParsedStatement
	Err       error
}

// ParseAll parses independent files concurrently, at most workers at a
// time (workers <= 0 means one per file). Results keep the input order and
// a failing file never affects the others. Files not started before ctx is
// cancelled report the context error.
func (p *Parser) ParseAll(ctx context.Context, sources []Source, workers int) []Result {
	results := make([]Result, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, src := range sources {
		i, src := i, src
		results[i].Source = src
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Statement, results[i].Err = p.ParseFile(src.Path, src.Template)
			return nil
		})
	}
	_ = g.Wait() // workers never fail the group
	return results
}

// FileInfo describes a statement waiting in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// importDir is the subdirectory for statements to import.
const importDir = "import"

// processedDir is the subdirectory for imported statements.
const processedDir = "import/processed"

var statementExts = map[string]bool{
	".csv":  true,
	".tsv":  true,
	".txt":  true,
	".xlsx": true,
	".pdf":  true,
}

// Scan returns statement files in <repoRoot>/import/.
func Scan(repoRoot string) ([]FileInfo, error) {
	dir := filepath.Join(repoRoot, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !statementExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(repoRoot, fileName string) error {
	src := filepath.Join(repoRoot, importDir, fileName)
	dstDir := filepath.Join(repoRoot, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
