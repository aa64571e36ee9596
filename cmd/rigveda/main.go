// Command rigveda is the CLI for the Rigveda corpus toolkit. It extracts
// verse records from raw mandala text, reconciles external translation
// tables, and serves the finished dataset for browsing.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/vedakosh/rigveda/core/errors"
	"github.com/vedakosh/rigveda/core/griffith"
	"github.com/vedakosh/rigveda/core/hymn"
	"github.com/vedakosh/rigveda/core/merge"
	"github.com/vedakosh/rigveda/core/pipeline"
	"github.com/vedakosh/rigveda/core/record"
	"github.com/vedakosh/rigveda/core/snapshot"
	"github.com/vedakosh/rigveda/core/sqlite"
	"github.com/vedakosh/rigveda/internal/api"
	"github.com/vedakosh/rigveda/internal/config"
	"github.com/vedakosh/rigveda/internal/logging"
	"github.com/vedakosh/rigveda/internal/sources"
	"github.com/vedakosh/rigveda/internal/store"
)

const version = "0.1.0"

// CLI defines the command-line interface for rigveda.
var CLI struct {
	// Global flags
	Config    string `help:"Config file path" type:"path"`
	LogLevel  string `help:"Override log level (debug|info|warn|error)"`
	LogFormat string `help:"Override log format (json|text)"`

	// Command groups (noun-first organization)
	Corpus       CorpusGroup       `cmd:"" help:"Corpus extraction (parse, validate, stats)"`
	Translations TranslationsGroup `cmd:"" help:"Translation tables (convert, merge)"`
	Lookup       LookupCmd         `cmd:"" help:"Look up one verse by reference"`
	Store        StoreGroup        `cmd:"" help:"SQLite record store (load, search)"`
	Snapshot     SnapshotGroup     `cmd:"" help:"Dataset snapshots (create, verify, extract)"`
	Serve        ServeCmd          `cmd:"" help:"Start the browse API server"`
	Version      VersionCmd        `cmd:"" help:"Print version information"`
}

// CorpusGroup contains extraction pipeline operations.
type CorpusGroup struct {
	Parse    CorpusParseCmd    `cmd:"" help:"Extract verse records from raw mandala sources"`
	Validate CorpusValidateCmd `cmd:"" help:"Re-validate an existing record stream"`
	Stats    CorpusStatsCmd    `cmd:"" help:"Summarize a record stream"`
}

// TranslationsGroup contains translation table operations.
type TranslationsGroup struct {
	Convert TranslationsConvertCmd `cmd:"" help:"Convert a plain-text Griffith edition to a mapping table"`
	Merge   TranslationsMergeCmd   `cmd:"" help:"Merge a mapping table into a record stream"`
}

// StoreGroup contains record store operations.
type StoreGroup struct {
	Load   StoreLoadCmd   `cmd:"" help:"Load a record stream into a SQLite store"`
	Search StoreSearchCmd `cmd:"" help:"Search a SQLite store"`
}

// SnapshotGroup contains snapshot archive operations.
type SnapshotGroup struct {
	Create  SnapshotCreateCmd  `cmd:"" help:"Pack a dataset into a verifiable archive"`
	Verify  SnapshotVerifyCmd  `cmd:"" help:"Re-hash an archive against its manifest"`
	Extract SnapshotExtractCmd `cmd:"" help:"Unpack an archive"`
}

// CorpusParseCmd runs the extraction pipeline over a source directory.
type CorpusParseCmd struct {
	InputDir   string `name:"input-dir" required:"" help:"Directory of raw mandala sources" type:"existingdir"`
	Glob       string `help:"File name pattern to admit (default: all supported files)"`
	Output     string `required:"" help:"Output record stream (JSON Lines)" type:"path"`
	PageHelper string `name:"page-helper" help:"Page number helper JSON" type:"existingfile"`
	MaxSuktas  int    `name:"max-suktas" help:"Skip blocks whose sukta number exceeds this"`
}

func (c *CorpusParseCmd) Run(cfg *config.Config) error {
	blocks, err := sources.Scan(c.InputDir, c.Glob)
	if err != nil {
		return err
	}
	logging.Info("sources scanned", "dir", c.InputDir, "blocks", len(blocks))

	var pages hymn.PageLookup
	if c.PageHelper != "" {
		table, err := sources.LoadPageTable(c.PageHelper)
		if err != nil {
			return err
		}
		pages = table.Lookup()
		logging.Info("page helper loaded", "path", c.PageHelper, "entries", table.Len())
	}

	run := pipeline.NewRun(pipeline.Options{
		HeaderWindow:     cfg.Heuristics.HeaderWindow,
		MinClassifyRunes: cfg.Heuristics.MinClassifyRunes,
		MaxPadas:         cfg.Heuristics.MaxPadas,
		Pages:            pages,
		MaxSuktas:        c.MaxSuktas,
	})
	for _, b := range blocks {
		if err := run.Process(pipeline.Block{
			Mandala:    b.Mandala,
			Sukta:      b.Sukta,
			Text:       b.Text,
			SourceFile: b.SourceFile,
			Page:       b.Page,
		}); err != nil {
			break
		}
	}

	// The summary is written even when the run aborted, so the collision
	// report survives for review.
	summary := run.Summarize()
	if err := pipeline.WriteSummary(c.Output, summary); err != nil {
		return err
	}

	if runErr := run.Err(); runErr != nil {
		logging.Error("run aborted", "error", runErr,
			"summary", pipeline.SummaryPath(c.Output))
		return runErr
	}

	if err := writeRecords(c.Output, run.Records()); err != nil {
		return err
	}
	fmt.Printf("emitted %d records to %s (summary: %s)\n",
		summary.Emitted, c.Output, pipeline.SummaryPath(c.Output))
	return nil
}

// CorpusValidateCmd re-validates a record stream, including duplicate-id
// detection across the whole file.
type CorpusValidateCmd struct {
	Dataset string `arg:"" help:"Record stream to validate" type:"existingfile"`
}

func (c *CorpusValidateCmd) Run(cfg *config.Config) error {
	recs, err := readRecords(c.Dataset)
	if err != nil {
		return err
	}

	v := record.NewValidator()
	var rejected int
	for _, rec := range recs {
		if err := v.Validate(rec); err != nil {
			var dup *record.DuplicateIDError
			if errors.As(err, &dup) {
				return err
			}
			rejected++
			logging.Warn("record failed validation", "id", rec.ID, "error", err)
		}
	}

	fmt.Printf("checked %d records: %d flagged, %d rejected\n",
		v.Checked(), v.Flagged(), v.Rejected())
	if rejected > 0 {
		return errors.Wrapf(errors.ErrInvalidInput,
			"%d records failed validation", rejected)
	}
	return nil
}

// CorpusStatsCmd prints per-mandala coverage for a record stream.
type CorpusStatsCmd struct {
	Dataset string `arg:"" help:"Record stream to summarize" type:"existingfile"`
}

func (c *CorpusStatsCmd) Run(cfg *config.Config) error {
	recs, err := readRecords(c.Dataset)
	if err != nil {
		return err
	}

	type row struct {
		Mandala    int `json:"mandala"`
		Verses     int `json:"verses"`
		Deity      int `json:"with_deity"`
		Translated int `json:"with_translation"`
	}
	byMandala := map[int]*row{}
	for _, rec := range recs {
		r, ok := byMandala[rec.Mandala]
		if !ok {
			r = &row{Mandala: rec.Mandala}
			byMandala[rec.Mandala] = r
		}
		r.Verses++
		if rec.Deity != nil {
			r.Deity++
		}
		if rec.Translation != nil {
			r.Translated++
		}
	}

	var rows []*row
	for m := 1; m <= 10; m++ {
		if r, ok := byMandala[m]; ok {
			rows = append(rows, r)
		}
	}
	out := map[string]interface{}{"records": len(recs), "by_mandala": rows}
	return printJSON(out)
}

// TranslationsConvertCmd turns a plain-text Griffith edition into a
// mapping table.
type TranslationsConvertCmd struct {
	Input      string `required:"" help:"Plain-text Griffith edition" type:"existingfile"`
	OutDir     string `name:"out-dir" default:"." help:"Output directory" type:"path"`
	Format     string `default:"csv" enum:"csv,jsonl" help:"Output table format"`
	MinLength  int    `name:"min-length" help:"Shortest paragraph kept (default from config)"`
	AllowRoman bool   `name:"allow-roman" help:"Accept roman-numeral verse numbers"`
	DryRun     bool   `name:"dry-run" help:"Report what would be written without writing"`
}

func (c *TranslationsConvertCmd) Run(cfg *config.Config) error {
	minLen := c.MinLength
	if minLen == 0 {
		minLen = cfg.Heuristics.MinTranslationLen
	}

	f, err := os.Open(c.Input)
	if err != nil {
		return &errors.IOError{Operation: "open", Path: c.Input, Err: err}
	}
	defer f.Close()

	entries, stats, err := griffith.Convert(f, griffith.Options{
		MinLength:  minLen,
		AllowRoman: c.AllowRoman,
	})
	if err != nil {
		return err
	}

	outPath := filepath.Join(c.OutDir, "griffith."+c.Format)
	if c.DryRun {
		fmt.Printf("dry run: %d entries (of %d paragraphs, %d skipped) would be written to %s\n",
			stats.Entries, stats.Paragraphs, stats.Skipped, outPath)
		return nil
	}

	out, err := os.Create(outPath)
	if err != nil {
		return &errors.IOError{Operation: "create", Path: outPath, Err: err}
	}
	defer out.Close()

	if c.Format == "csv" {
		err = griffith.WriteCSV(out, entries)
	} else {
		err = griffith.WriteJSONL(out, entries)
	}
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d entries to %s (%d books, %d hymns, %d paragraphs skipped)\n",
		stats.Entries, outPath, stats.Books, stats.Hymns, stats.Skipped)
	return nil
}

// TranslationsMergeCmd reconciles a mapping table into a record stream.
type TranslationsMergeCmd struct {
	Dataset   string `required:"" help:"Record stream to merge into" type:"existingfile"`
	Map       string `required:"" help:"Mapping table (CSV, JSON, or JSONL)" type:"existingfile"`
	Out       string `required:"" help:"Merged record stream" type:"path"`
	Overwrite bool   `help:"Replace already-populated fields (noted per record)"`
	Fuzzy     bool   `help:"Align leftover entries by per-hymn order"`
	Field     string `default:"translation" enum:"translation,transliteration" help:"Target field"`
	Report    string `help:"Write merge stats JSON here" type:"path"`
}

func (c *TranslationsMergeCmd) Run(cfg *config.Config) error {
	recs, err := readRecords(c.Dataset)
	if err != nil {
		return err
	}
	mapping, err := merge.LoadFile(c.Map)
	if err != nil {
		return err
	}

	stats := merge.Apply(recs, mapping, merge.Options{
		Overwrite: c.Overwrite,
		Sequence:  c.Fuzzy,
		Field:     merge.Field(c.Field),
	})
	logging.MergeSummary(stats.Matched(), stats.Missing, stats.Skipped,
		"entries", stats.MappingEntries)

	if err := writeRecords(c.Out, recs); err != nil {
		return err
	}
	if c.Report != "" {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return errors.Wrap(err, "encoding merge report")
		}
		if err := os.WriteFile(c.Report, append(data, '\n'), 0644); err != nil {
			return &errors.IOError{Operation: "write", Path: c.Report, Err: err}
		}
	}
	fmt.Printf("merged %d of %d records (%d missing, %d skipped) into %s\n",
		stats.Matched(), stats.Records, stats.Missing, stats.Skipped, c.Out)
	return nil
}

// LookupCmd prints one verse record by reference.
type LookupCmd struct {
	Ref     string `arg:"" help:"Verse reference (RV-01-001-01 or 1.1.1)"`
	Dataset string `required:"" help:"Record stream to search" type:"existingfile"`
}

func (c *LookupCmd) Run(cfg *config.Config) error {
	ref, err := record.ParseRef(c.Ref)
	if err != nil {
		return err
	}

	recs, err := readRecords(c.Dataset)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if rec.ID == ref.ID() {
			return printJSON(rec)
		}
	}
	return &errors.NotFoundError{Resource: "record", ID: ref.ID()}
}

// StoreLoadCmd loads a record stream into a SQLite store, replacing any
// previous contents.
type StoreLoadCmd struct {
	Dataset string `required:"" help:"Record stream to load" type:"existingfile"`
	DB      string `required:"" help:"SQLite database path" type:"path"`
}

func (c *StoreLoadCmd) Run(cfg *config.Config) error {
	recs, err := readRecords(c.Dataset)
	if err != nil {
		return err
	}

	s, err := store.Open(c.DB)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Reset(); err != nil {
		return err
	}
	n, err := s.Load(recs)
	if err != nil {
		return err
	}
	fmt.Printf("loaded %d records into %s (%s driver)\n", n, c.DB, sqlite.DriverType())
	return nil
}

// StoreSearchCmd searches a SQLite store and prints matches as JSON Lines.
type StoreSearchCmd struct {
	Query string `arg:"" help:"Substring to find in sanskrit or translation"`
	DB    string `required:"" help:"SQLite database path" type:"existingfile"`
	Limit int    `default:"20" help:"Maximum matches"`
}

func (c *StoreSearchCmd) Run(cfg *config.Config) error {
	s, err := store.OpenReadOnly(c.DB)
	if err != nil {
		return err
	}
	defer s.Close()

	recs, err := s.Search(c.Query, c.Limit)
	if err != nil {
		return err
	}
	return record.Write(os.Stdout, recs)
}

// SnapshotCreateCmd packs a dataset and its sidecars into an archive.
type SnapshotCreateCmd struct {
	Dataset     string `required:"" help:"Record stream to snapshot" type:"existingfile"`
	Out         string `required:"" help:"Archive path (.tar.xz or .tar.gz)" type:"path"`
	Compression string `help:"Codec, xz or gzip (default: from archive extension)"`
}

func (c *SnapshotCreateCmd) Run(cfg *config.Config) error {
	recs, err := readRecords(c.Dataset)
	if err != nil {
		return err
	}

	files := []string{c.Dataset}
	if summaryPath := pipeline.SummaryPath(c.Dataset); fileExists(summaryPath) {
		files = append(files, summaryPath)
	}

	comp := snapshot.Compression(c.Compression)
	if comp == "" {
		comp = snapshot.CompressionForPath(c.Out)
	}
	if !comp.IsValid() {
		return errors.Wrapf(errors.ErrInvalidInput, "unsupported compression %q", c.Compression)
	}

	manifest, err := snapshot.Create(c.Out, files, snapshot.Meta{
		Tool:        snapshot.ToolInfo{Name: "rigveda", Version: version},
		RecordCount: len(recs),
	}, comp)
	if err != nil {
		return err
	}
	fmt.Printf("snapshot %s: %d files, %d records\n",
		manifest.SnapshotID, len(manifest.Files), manifest.RecordCount)
	return nil
}

// SnapshotVerifyCmd re-hashes an archive against its manifest.
type SnapshotVerifyCmd struct {
	Archive string `arg:"" help:"Snapshot archive" type:"existingfile"`
}

func (c *SnapshotVerifyCmd) Run(cfg *config.Config) error {
	manifest, err := snapshot.Verify(c.Archive)
	if err != nil {
		return err
	}
	fmt.Printf("ok: %d files verified (snapshot %s, created %s)\n",
		len(manifest.Files), manifest.SnapshotID, manifest.CreatedAt)
	return nil
}

// SnapshotExtractCmd unpacks an archive.
type SnapshotExtractCmd struct {
	Archive string `arg:"" help:"Snapshot archive" type:"existingfile"`
	Out     string `required:"" help:"Destination directory" type:"path"`
}

func (c *SnapshotExtractCmd) Run(cfg *config.Config) error {
	if err := snapshot.Extract(c.Archive, c.Out); err != nil {
		return err
	}
	fmt.Printf("extracted %s to %s\n", c.Archive, c.Out)
	return nil
}

// ServeCmd starts the browse API over a loaded store.
type ServeCmd struct {
	DB   string `help:"SQLite database path (default from config)" type:"path"`
	Addr string `help:"Listen address host:port (default from config)"`
}

func (c *ServeCmd) Run(cfg *config.Config) error {
	apiCfg := api.Config{
		Host:    cfg.Server.Host,
		Port:    cfg.Server.Port,
		DBPath:  cfg.StorePath,
		Version: version,
	}
	if c.DB != "" {
		apiCfg.DBPath = c.DB
	}
	if c.Addr != "" {
		host, port, err := splitAddr(c.Addr)
		if err != nil {
			return err
		}
		apiCfg.Host, apiCfg.Port = host, port
	}
	return api.Start(apiCfg)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(cfg *config.Config) error {
	fmt.Printf("rigveda version %s (sqlite driver: %s)\n", version, sqlite.DriverType())
	return nil
}

// Helper functions

func readRecords(path string) ([]*record.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &errors.IOError{Operation: "open", Path: path, Err: err}
	}
	defer f.Close()
	return record.Read(f)
}

func writeRecords(path string, recs []*record.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return &errors.IOError{Operation: "create", Path: path, Err: err}
	}
	if err := record.Write(f, recs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding output")
	}
	fmt.Println(string(data))
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func splitAddr(addr string) (string, int, error) {
	host, portStr, found := strings.Cut(addr, ":")
	if !found {
		return "", 0, errors.Wrapf(errors.ErrInvalidInput, "address %q missing port", addr)
	}
	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		return "", 0, errors.Wrapf(errors.ErrInvalidInput, "bad port in %q", addr)
	}
	return host, port, nil
}

func parseLogLevel(s string) logging.Level {
	switch strings.ToLower(s) {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func parseLogFormat(s string) logging.Format {
	if strings.ToLower(s) == "text" {
		return logging.FormatText
	}
	return logging.FormatJSON
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("rigveda"),
		kong.Description("Rigveda corpus toolkit - extraction, reconciliation, and browsing"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	cfg, err := config.Load(CLI.Config)
	ctx.FatalIfErrorf(err)

	if CLI.LogLevel != "" {
		cfg.LogLevel = CLI.LogLevel
	}
	if CLI.LogFormat != "" {
		cfg.LogFormat = CLI.LogFormat
	}
	logging.InitLogger(parseLogLevel(cfg.LogLevel), parseLogFormat(cfg.LogFormat))

	err = ctx.Run(cfg)
	ctx.FatalIfErrorf(err)
}
