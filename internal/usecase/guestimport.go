package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lfariabr/wedstack-sub000/internal/core/domain"
	"github.com/lfariabr/wedstack-sub000/internal/core/port"
	"github.com/lfariabr/wedstack-sub000/internal/infra/logger"
)

// ErrMissingHeader indicates the CSV source had no header row.
var ErrMissingHeader = errors.New("csv source is missing a header row")

// ImportOptions configures one import run.
type ImportOptions struct {
	// Delimiter is the column separator, comma when zero.
	Delimiter rune
	// Trim strips surrounding whitespace from every field.
	Trim bool
	// ResetDedupe clears the dedupe set before the run, allowing a full
	// re-import. Genuine duplicate phone numbers across distinct guests then
	// become indistinguishable from retries; phone is the only natural key
	// available.
	ResetDedupe bool
	// ResetGuests empties the guest table before the run.
	ResetGuests bool
	// Source labels the run in logs and events, typically the file path.
	Source string
}

// DefaultImportOptions returns the options used by the import CLI unless
// overridden.
func DefaultImportOptions() ImportOptions {
	return ImportOptions{Delimiter: ',', Trim: true}
}

// GuestImporter ingests a guest CSV, skipping rows whose phone was processed
// by a prior run. Rows are processed strictly sequentially, which bounds
// memory for arbitrarily large files and keeps the dedupe check-then-add
// sequence race-free within a single run.
//
// The phone is added to the dedupe set BEFORE the write: a crash mid-write
// never causes a retry to re-process the record as new, at the cost that a
// failed write still consumes the dedupe slot until an explicit reset.
type GuestImporter struct {
	guests port.GuestRepository
	dedupe port.DedupeStore
	events port.EventPublisher
	logger *zap.Logger
	now    func() time.Time
}

// NewGuestImporter constructs the import pipeline.
func NewGuestImporter(guests port.GuestRepository, dedupe port.DedupeStore, events port.EventPublisher, log *zap.Logger) *GuestImporter {
	if log == nil {
		log = zap.NewNop()
	}

	return &GuestImporter{
		guests: guests,
		dedupe: dedupe,
		events: events,
		logger: log,
		now:    time.Now,
	}
}

// WithClock injects a custom clock, primarily for testing.
func (s *GuestImporter) WithClock(now func() time.Time) *GuestImporter {
	if now != nil {
		s.now = now
	}
	return s
}

// Run streams the CSV and upserts every new, valid row. Validation problems
// and malformed rows never escalate past the single row; store failures abort
// the whole run since no forward progress is safe without the dedupe store.
func (s *GuestImporter) Run(ctx context.Context, src io.Reader, opts ImportOptions) (*domain.ImportReport, error) {
	startedAt := s.now().UTC()

	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}

	if opts.ResetDedupe {
		if err := s.dedupe.Clear(ctx); err != nil {
			return nil, fmt.Errorf("reset dedupe set: %w", err)
		}
		s.logger.Info("dedupe set cleared before import")
	}

	if opts.ResetGuests {
		deleted, err := s.guests.DeleteAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("reset guest table: %w", err)
		}
		s.logger.Info("guest table cleared before import", zap.Int64("deleted", deleted))
	}

	reader := csv.NewReader(src)
	reader.Comma = opts.Delimiter
	reader.FieldsPerRecord = -1

	columns, err := s.readHeader(reader)
	if err != nil {
		return nil, err
	}

	report := &domain.ImportReport{}
	line := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("import aborted: %w", err)
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		line++
		report.Total++

		if err != nil {
			// A malformed row (e.g. broken quoting) is recorded and the
			// stream continues with the next record.
			report.AddError(line, err.Error())
			continue
		}

		row := newGuestRow(record, columns, opts.Trim)

		if row.name == "" {
			report.AddError(line, "missing name")
			continue
		}
		if row.phone == "" {
			report.AddError(line, "missing phone (required for dedup)")
			continue
		}

		seen, err := s.dedupe.Seen(ctx, row.phone)
		if err != nil {
			return nil, fmt.Errorf("dedupe lookup (line %d): %w", line, err)
		}
		if seen {
			report.Skipped++
			s.logger.Debug("duplicate guest skipped",
				zap.Int("line", line),
				zap.String("phone", logger.MaskPhone(row.phone)),
			)
			continue
		}

		if _, err := s.dedupe.MarkSeen(ctx, row.phone); err != nil {
			return nil, fmt.Errorf("dedupe add (line %d): %w", line, err)
		}

		guest := row.toGuest(s.logger, line)
		outcome, err := s.guests.Upsert(ctx, guest)
		if err != nil {
			return nil, fmt.Errorf("upsert guest (line %d): %w", line, err)
		}

		switch outcome {
		case port.UpsertInserted:
			report.Inserted++
		case port.UpsertUpdated:
			report.Updated++
		}
	}

	completedAt := s.now().UTC()

	s.logger.Info("guest import completed",
		zap.String("source", opts.Source),
		zap.Int("total", report.Total),
		zap.Int("inserted", report.Inserted),
		zap.Int("updated", report.Updated),
		zap.Int("skipped", report.Skipped),
		zap.Int("errors", len(report.Errors)),
		zap.Duration("elapsed", completedAt.Sub(startedAt)),
	)

	if s.events != nil {
		event := domain.GuestImportCompletedEvent{
			EventID:     uuid.NewString(),
			Source:      opts.Source,
			Total:       report.Total,
			Inserted:    report.Inserted,
			Updated:     report.Updated,
			Skipped:     report.Skipped,
			ErrorCount:  len(report.Errors),
			StartedAt:   startedAt,
			CompletedAt: completedAt,
		}
		if err := s.events.PublishGuestImportCompleted(ctx, event); err != nil {
			s.logger.Warn("failed to publish import event", zap.Error(err))
		}
	}

	return report, nil
}

// columnIndex maps normalized header names to field positions.
type columnIndex map[string]int

func (s *GuestImporter) readHeader(reader *csv.Reader) (columnIndex, error) {
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingHeader
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	columns := make(columnIndex, len(header))
	for i, raw := range header {
		if i == 0 {
			// Spreadsheet exports routinely carry a byte-order-mark on the
			// first header cell.
			raw = strings.TrimPrefix(raw, "\ufeff")
		}
		key := normalizeHeader(raw)
		if key == "" {
			continue
		}
		if _, exists := columns[key]; !exists {
			columns[key] = i
		}
	}

	// Quoting artifacts or renamed columns sometimes mangle the name header;
	// fall back to any header containing the substring "name".
	if _, ok := columns["name"]; !ok {
		for key, idx := range columns {
			if strings.Contains(key, "name") {
				columns["name"] = idx
				break
			}
		}
	}

	return columns, nil
}

func normalizeHeader(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, " ", "")
	key = strings.ReplaceAll(key, "_", "")
	return key
}

// guestRow holds one normalized CSV record.
type guestRow struct {
	name     string
	phone    string
	group    string
	status   string
	plusOnes string
}

func newGuestRow(record []string, columns columnIndex, trim bool) guestRow {
	field := func(key string) string {
		idx, ok := columns[key]
		if !ok || idx >= len(record) {
			return ""
		}
		value := record[idx]
		if trim {
			value = strings.TrimSpace(value)
		}
		return value
	}

	return guestRow{
		name:     field("name"),
		phone:    field("phone"),
		group:    field("group"),
		status:   field("status"),
		plusOnes: field("plusones"),
	}
}

func (r guestRow) toGuest(log *zap.Logger, line int) domain.Guest {
	group := r.group
	if group == "" {
		group = domain.DefaultGuestGroup
	}

	status, err := domain.ParseGuestStatus(r.status)
	if err != nil {
		// Unknown statuses degrade to the pending default rather than losing
		// the row.
		log.Warn("unknown guest status, defaulting to pending",
			zap.Int("line", line),
			zap.String("status", r.status),
		)
		status = domain.GuestStatusPending
	}

	plusOnes := 0
	if r.plusOnes != "" {
		parsed, err := strconv.Atoi(r.plusOnes)
		if err != nil || parsed < 0 {
			parsed = 0
		}
		plusOnes = parsed
	}

	return domain.Guest{
		Phone:    r.phone,
		Name:     r.name,
		Group:    group,
		Status:   status,
		PlusOnes: plusOnes,
	}
}
