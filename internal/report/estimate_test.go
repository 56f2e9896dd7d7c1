package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/jhon-henao13/Fixly/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimatePDF(t *testing.T) {
	labor := decimal.RequireFromString("40.00")
	parts := decimal.RequireFromString("25.50")

	for _, approved := range []bool{false, true} {
		out, err := EstimatePDF(&EstimateData{
			Workshop: model.Workshop{Name: "Taller Núñez", Email: "taller@shop.test"},
			Job: model.Job{
				ID:         3,
				ClientName: "Ana",
				Item:       "iPhone 12",
				Problem:    "Broken screen",
				Status:     model.JobStatusWaiting,
			},
			Estimate: model.Estimate{
				ID:          9,
				Description: "Replace display",
				Labor:       labor,
				Parts:       parts,
				Total:       labor.Add(parts),
				Approved:    approved,
			},
			ApprovalURL: "http://localhost:8080/e/abc",
			GeneratedAt: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
		assert.Greater(t, len(out), 500)
	}
}
