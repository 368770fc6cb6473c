// Package importer stages the tab-delimited cube exports.
//
// Every regular *.txt file in the data directory is classified by its name
// prefix, its header line is skipped and each data row is parsed into a
// Record and appended to the staging tables. Malformed rows are logged and
// skipped; they never abort the file. Canonical tables are never touched.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/mdrzasync/internal/common"
	"github.com/dmitrijs2005/mdrzasync/internal/logging"
	"github.com/dmitrijs2005/mdrzasync/internal/repositories/staging"
)

// Stats summarises one import pass.
type Stats struct {
	Files       int
	Ignored     int
	FailedFiles int

	Trips     int
	Usernames int
	Passwords int
	Skipped   int
}

// Staged is the number of rows written to staging.
func (s Stats) Staged() int {
	return s.Trips + s.Usernames + s.Passwords
}

func (s *Stats) add(k Kind) {
	switch k {
	case KindTrip:
		s.Trips++
	case KindUsername:
		s.Usernames++
	case KindPassword:
		s.Passwords++
	}
}

// Importer walks a data directory and stages its rows.
type Importer struct {
	logger logging.Logger
}

func New(logger logging.Logger) *Importer {
	return &Importer{logger: logger}
}

// Import clears staging and stages every recognised file in dir, in
// directory-listing order. Only storage failures are returned; they abort the
// pass.
func (im *Importer) Import(ctx context.Context, dir string, repo staging.Repository) (Stats, error) {
	var stats Stats

	entries, err := os.ReadDir(dir)
	if err != nil {
		return stats, fmt.Errorf("read data dir %s: %w", dir, err)
	}

	if err := repo.Clear(ctx); err != nil {
		return stats, err
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		name := entry.Name()
		if !entry.Type().IsRegular() || !strings.EqualFold(filepath.Ext(name), ".txt") {
			continue
		}

		kind := Classify(name)
		if kind == KindUnknown {
			im.logger.Debug(ctx, "ignoring file", "file", name)
			stats.Ignored++
			continue
		}

		path := filepath.Join(dir, name)
		im.logger.Info(ctx, "processing file", "file", path, "kind", kind.String())

		if err := im.importFile(ctx, path, kind, repo, &stats); err != nil {
			if errors.Is(err, common.ErrStorage) || ctx.Err() != nil {
				return stats, err
			}
			im.logger.Warn(ctx, "file import stopped", "file", path, "error", err)
			stats.FailedFiles++
			continue
		}
		stats.Files++
	}

	return stats, nil
}

func (im *Importer) importFile(ctx context.Context, path string, kind Kind, repo staging.Repository, stats *Stats) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return im.importRows(ctx, filepath.Base(path), f, kind, repo, stats)
}

func (im *Importer) importRows(ctx context.Context, name string, r io.Reader, kind Kind, repo staging.Repository, stats *Stats) error {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	// header
	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var pe *csv.ParseError
		if !errors.As(err, &pe) {
			return err
		}
	}

	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}

		var pe *csv.ParseError
		if errors.As(err, &pe) {
			im.skip(ctx, stats, &RowError{File: name, Line: pe.Line, Err: pe.Err})
			continue
		}
		if err != nil {
			return err
		}

		line, _ := cr.FieldPos(0)

		rec, err := ParseRow(kind, fields)
		if err != nil {
			im.skip(ctx, stats, &RowError{File: name, Line: line, Err: err})
			continue
		}

		if err := rec.stage(ctx, repo); err != nil {
			return err
		}
		stats.add(kind)
	}
}

func (im *Importer) skip(ctx context.Context, stats *Stats, err *RowError) {
	stats.Skipped++
	im.logger.Warn(ctx, "skipping row", "file", err.File, "line", err.Line, "error", err.Err)
}
