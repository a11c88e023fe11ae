package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/garyjia/ehs-tracker/internal/application/port"
	"github.com/garyjia/ehs-tracker/internal/domain/entity"
	"github.com/garyjia/ehs-tracker/internal/domain/workflow"
)

const (
	itemsSheet   = "Items"
	summarySheet = "Summary"
	exportPage   = 500
	timeLayout   = "2006-01-02 15:04"
)

// StatusCount is the number of items in one status
type StatusCount struct {
	Status workflow.Status `json:"status"`
	Label  string          `json:"label"`
	Badge  workflow.Badge  `json:"badge"`
	Count  int             `json:"count"`
}

// Summary aggregates item counts for a client
type Summary struct {
	ClientID    string                 `json:"client_id,omitempty"`
	Total       int                    `json:"total"`
	ByStatus    []StatusCount          `json:"by_status"`
	ByOwner     map[workflow.Owner]int `json:"by_owner"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// ReportService builds status summaries and spreadsheet exports
type ReportService interface {
	Summary(ctx context.Context, clientID string) (*Summary, error)
	ExportXLSX(ctx context.Context, clientID string, w io.Writer) error
}

type reportServiceImpl struct {
	itemRepo port.WorkflowRepository
	logger   Logger
	now      func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(itemRepo port.WorkflowRepository, logger Logger) ReportService {
	return &reportServiceImpl{
		itemRepo: itemRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// Summary counts items per status. Unrecognized statuses are reported with
// their raw value and the unknown owner.
func (s *reportServiceImpl) Summary(ctx context.Context, clientID string) (*Summary, error) {
	counts, err := s.itemRepo.CountByStatus(ctx, clientID)
	if err != nil {
		s.logger.Error("Failed to count items", "error", err, "client_id", clientID)
		return nil, fmt.Errorf("%w: %w", workflow.ErrPersistenceFailure, err)
	}

	summary := &Summary{
		ClientID:    clientID,
		ByOwner:     make(map[workflow.Owner]int),
		GeneratedAt: s.now().UTC(),
	}

	seen := make(map[workflow.Status]bool)
	for _, status := range workflow.Statuses() {
		seen[status] = true
		summary.ByStatus = append(summary.ByStatus, statusCount(status, counts[status]))
	}

	var extra []workflow.Status
	for status := range counts {
		if !seen[status] {
			extra = append(extra, status)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	for _, status := range extra {
		summary.ByStatus = append(summary.ByStatus, statusCount(status, counts[status]))
	}

	for status, n := range counts {
		summary.Total += n
		summary.ByOwner[status.Owner()] += n
	}

	return summary, nil
}

// ExportXLSX writes an Items sheet and a Summary sheet to w
func (s *reportServiceImpl) ExportXLSX(ctx context.Context, clientID string, w io.Writer) error {
	items, err := s.allItems(ctx, clientID)
	if err != nil {
		return err
	}
	summary, err := s.Summary(ctx, clientID)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", itemsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := []interface{}{
		"ID", "Title", "Status", "Owner", "Responsible",
		"Completed At", "Response Notes", "Evidence",
		"Validator", "Validated At", "Validator Notes", "Created At",
	}
	if err := f.SetSheetRow(itemsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, item := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := itemRow(item)
		if err := f.SetSheetRow(itemsSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	summaryHeader := []interface{}{"Status", "Label", "Count"}
	if err := f.SetSheetRow(summarySheet, "A1", &summaryHeader); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}
	for i, sc := range summary.ByStatus {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{string(sc.Status), sc.Label, sc.Count}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	totalCell, err := excelize.CoordinatesToCellName(1, len(summary.ByStatus)+2)
	if err != nil {
		return err
	}
	total := []interface{}{"total", "Total", summary.Total}
	if err := f.SetSheetRow(summarySheet, totalCell, &total); err != nil {
		return fmt.Errorf("write total row: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("Workflow export generated", "client_id", clientID, "items", len(items))
	return nil
}

func (s *reportServiceImpl) allItems(ctx context.Context, clientID string) ([]*entity.WorkflowItem, error) {
	var all []*entity.WorkflowItem
	for offset := 0; ; offset += exportPage {
		page, err := s.itemRepo.List(ctx, port.ListFilter{ClientID: clientID, Limit: exportPage, Offset: offset})
		if err != nil {
			s.logger.Error("Failed to list items for export", "error", err, "client_id", clientID)
			return nil, fmt.Errorf("%w: %w", workflow.ErrPersistenceFailure, err)
		}
		all = append(all, page...)
		if len(page) < exportPage {
			return all, nil
		}
	}
}

func statusCount(status workflow.Status, n int) StatusCount {
	return StatusCount{
		Status: status,
		Label:  status.Label(),
		Badge:  status.Badge(),
		Count:  n,
	}
}

func itemRow(item *entity.WorkflowItem) []interface{} {
	return []interface{}{
		item.ID,
		item.Title,
		item.Status.Label(),
		string(item.Status.Owner()),
		item.ResponsibleID,
		formatTime(item.CompletedAt),
		deref(item.ResponseNotes),
		len(item.EvidencePhotos),
		deref(item.ValidatorID),
		formatTime(item.ValidatedAt),
		deref(item.ValidatorNotes),
		item.CreatedAt.UTC().Format(timeLayout),
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
