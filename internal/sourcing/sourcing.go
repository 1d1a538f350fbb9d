// Package sourcing manages the target universe: CSV imports, list
// filtering, and bulk outreach status changes.
package sourcing

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jaimenoain/ceeq/internal/fingerprint"
	"github.com/jaimenoain/ceeq/internal/model"
	"github.com/jaimenoain/ceeq/internal/store"
)

var (
	ErrMissingColumn  = eris.New("sourcing: mapping references a column not present in the file")
	ErrMappingInvalid = eris.New("sourcing: mapping must name name and domain columns")
	ErrInvalidStatus  = eris.New("sourcing: unknown status")
)

// Mapping names the CSV columns to read each field from. Name and
// Domain are required, the rest optional.
type Mapping struct {
	Name     string `json:"name"`
	Domain   string `json:"domain"`
	Industry string `json:"industry,omitempty"`
	FitScore string `json:"fit_score,omitempty"`
}

// ImportResult summarizes a CSV import.
type ImportResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

type Service struct {
	store     store.Store
	batchSize int
}

func New(st store.Store, batchSize int) *Service {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &Service{store: st, batchSize: batchSize}
}

// ListUniverse returns a filtered, paginated page of the workspace's
// targets ordered by fit score.
func (s *Service) ListUniverse(ctx context.Context, workspaceID string, filter store.TargetFilter) (*model.UniversePage, error) {
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	targets, total, err := s.store.ListTargets(ctx, workspaceID, filter)
	if err != nil {
		return nil, eris.Wrap(err, "sourcing: list universe")
	}

	now := time.Now().UTC()
	rows := make([]model.UniverseRow, 0, len(targets))
	for _, tg := range targets {
		rows = append(rows, model.UniverseRow{
			ID:       tg.ID,
			Name:     tg.Name,
			Domain:   tg.Domain,
			Industry: tg.Industry,
			FitScore: tg.FitScore,
			Status:   tg.Status,
			AddedAgo: model.RelativeTime(tg.CreatedAt, now),
		})
	}

	totalPages := total / filter.Limit
	if total%filter.Limit != 0 {
		totalPages++
	}
	return &model.UniversePage{
		Rows:       rows,
		TotalCount: total,
		Page:       filter.Page,
		TotalPages: totalPages,
	}, nil
}

// ImportCSV streams the file into the workspace's universe in batches.
// Rows missing a name or domain are skipped, as are rows whose domain
// already exists in the workspace.
func (s *Service) ImportCSV(ctx context.Context, workspaceID string, r io.Reader, mapping Mapping) (*ImportResult, error) {
	if mapping.Name == "" || mapping.Domain == "" {
		return nil, ErrMappingInvalid
	}

	headerCh := make(chan []string, 1)
	rowCh, errCh := streamCSV(ctx, r, csvOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})

	var header []string
	select {
	case header = <-headerCh:
	case err := <-errCh:
		if err != nil {
			return nil, err
		}
		// Small files can finish streaming before we get here; the
		// header may still be buffered.
		select {
		case header = <-headerCh:
		default:
			return nil, eris.New("sourcing: empty file")
		}
	case <-ctx.Done():
		return nil, eris.Wrap(ctx.Err(), "sourcing: import cancelled")
	}

	cols, err := resolveColumns(header, mapping)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	batch := make([]model.SourcingTarget, 0, s.batchSize)
	parsed := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		inserted, err := s.store.BulkInsertTargets(ctx, workspaceID, batch)
		if err != nil {
			return eris.Wrap(err, "sourcing: insert batch")
		}
		result.Inserted += int(inserted)
		batch = batch[:0]
		return nil
	}

	for row := range rowCh {
		tg, ok := cols.extract(row)
		if !ok {
			result.Skipped++
			continue
		}
		parsed++
		batch = append(batch, tg)
		if len(batch) >= s.batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}

	// Rows the unique constraint swallowed count as skipped too.
	result.Skipped += parsed - result.Inserted

	zap.L().Info("csv import complete",
		zap.String("workspace_id", workspaceID),
		zap.Int("inserted", result.Inserted),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// BulkStatus moves a set of targets to a new outreach status.
func (s *Service) BulkStatus(ctx context.Context, workspaceID string, targetIDs []string, status model.SourcingStatus) (int64, error) {
	if !status.Valid() {
		return 0, ErrInvalidStatus
	}
	if len(targetIDs) == 0 {
		return 0, nil
	}
	updated, err := s.store.UpdateTargetStatuses(ctx, workspaceID, targetIDs, status)
	return updated, eris.Wrap(err, "sourcing: bulk status")
}

// columnIndexes maps each mapped field to its position in the header.
type columnIndexes struct {
	name     int
	domain   int
	industry int
	fitScore int
}

func resolveColumns(header []string, mapping Mapping) (*columnIndexes, error) {
	find := func(col string) int {
		if col == "" {
			return -1
		}
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), col) {
				return i
			}
		}
		return -1
	}

	cols := &columnIndexes{
		name:     find(mapping.Name),
		domain:   find(mapping.Domain),
		industry: find(mapping.Industry),
		fitScore: find(mapping.FitScore),
	}
	if cols.name < 0 || cols.domain < 0 {
		return nil, ErrMissingColumn
	}
	if mapping.Industry != "" && cols.industry < 0 {
		return nil, ErrMissingColumn
	}
	if mapping.FitScore != "" && cols.fitScore < 0 {
		return nil, ErrMissingColumn
	}
	return cols, nil
}

// extract builds a target from a row, reporting false when the row is
// unusable.
func (c *columnIndexes) extract(row []string) (model.SourcingTarget, bool) {
	field := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	name := field(c.name)
	domain := fingerprint.Normalize(field(c.domain))
	if name == "" || domain == "" {
		return model.SourcingTarget{}, false
	}

	tg := model.SourcingTarget{
		Name:     name,
		Domain:   domain,
		Industry: field(c.industry),
		Status:   model.SourcingUntouched,
	}
	if raw := field(c.fitScore); raw != "" {
		if score, err := strconv.ParseFloat(raw, 64); err == nil {
			tg.FitScore = score
		}
	}
	return tg, true
}
