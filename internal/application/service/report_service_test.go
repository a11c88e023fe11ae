package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/garyjia/ehs-tracker/internal/domain/workflow"
)

func seededRepo() *memoryItemRepo {
	repo := newMemoryItemRepo(
		newItem("a", workflow.StatusPending),
		newItem("b", workflow.StatusPending),
		newItem("c", workflow.StatusSubmittedBlocked),
		newItem("d", workflow.StatusApproved),
		newItem("e", workflow.Status("legacy_hold")),
	)
	other := newItem("x", workflow.StatusReturned)
	other.ClientID = "client-2"
	repo.items["x"] = other
	return repo
}

func countFor(summary *Summary, status workflow.Status) int {
	for _, sc := range summary.ByStatus {
		if sc.Status == status {
			return sc.Count
		}
	}
	return -1
}

func TestReportService_Summary(t *testing.T) {
	svc := NewReportService(seededRepo(), &mockLogger{})

	summary, err := svc.Summary(context.Background(), "client-1")
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 2, countFor(summary, workflow.StatusPending))
	assert.Equal(t, 1, countFor(summary, workflow.StatusSubmittedBlocked))
	assert.Equal(t, 0, countFor(summary, workflow.StatusReturned))
	assert.Equal(t, 1, countFor(summary, workflow.Status("legacy_hold")))

	last := summary.ByStatus[len(summary.ByStatus)-1]
	assert.Equal(t, "legacy_hold", last.Label)
	assert.Equal(t, workflow.BadgeUnknown, last.Badge)

	assert.Equal(t, 2, summary.ByOwner[workflow.OwnerResponsible])
	assert.Equal(t, 1, summary.ByOwner[workflow.OwnerValidator])
	assert.Equal(t, 1, summary.ByOwner[workflow.OwnerClosed])
	assert.Equal(t, 1, summary.ByOwner[workflow.OwnerUnknown])
}

func TestReportService_ExportXLSX(t *testing.T) {
	svc := NewReportService(seededRepo(), &mockLogger{})

	var buf bytes.Buffer
	require.NoError(t, svc.ExportXLSX(context.Background(), "client-1", &buf))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Items", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Items")
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "Status", rows[0][2])

	summaryRows, err := f.GetRows("Summary")
	require.NoError(t, err)
	totalRow := summaryRows[len(summaryRows)-1]
	assert.Equal(t, "total", totalRow[0])
	assert.Equal(t, fmt.Sprint(5), totalRow[2])
}
