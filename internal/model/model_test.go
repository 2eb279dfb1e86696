package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReviewAction(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ReviewAction
		wantErr bool
	}{
		{name: "approve", input: "approve", want: ReviewActionApprove},
		{name: "reject", input: "reject", want: ReviewActionReject},
		{name: "surrounding spaces", input: " approve ", want: ReviewActionApprove},
		{name: "empty", input: "", wantErr: true},
		{name: "unknown", input: "archive", wantErr: true},
		{name: "case sensitive", input: "Approve", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReviewAction(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReviewActionStatus(t *testing.T) {
	assert.Equal(t, EvidenceStatusApproved, ReviewActionApprove.Status())
	assert.Equal(t, EvidenceStatusRejected, ReviewActionReject.Status())
}

func TestMaterialAsset(t *testing.T) {
	m := &Material{Image: "poster.png", Text: "poster.txt"}

	assert.Equal(t, "poster.png", m.Asset(AssetKindImage))
	assert.Equal(t, "poster.txt", m.Asset(AssetKindText))
	assert.Equal(t, "", m.Asset("video"))
	assert.False(t, ValidAssetKind("video"))
}

func TestCountByStatus(t *testing.T) {
	counts := CountByStatus([]*Evidence{
		{Status: EvidenceStatusPending},
		{Status: EvidenceStatusApproved},
		{Status: EvidenceStatusApproved},
		{Status: EvidenceStatusRejected},
	})

	assert.Equal(t, StatusCounts{Total: 4, Pending: 1, Approved: 2, Rejected: 1}, counts)
	assert.Equal(t, counts.Total, counts.Pending+counts.Approved+counts.Rejected)
	assert.False(t, EvidenceStatus("archived").Valid())
}

func TestEvidenceStatusUnmarshal(t *testing.T) {
	var e Evidence
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1_20250101_120000","status":"approved"}`), &e))
	assert.Equal(t, EvidenceStatusApproved, e.Status)

	err := json.Unmarshal([]byte(`{"id":"1_20250101_120000","status":"archived"}`), &e)
	assert.ErrorContains(t, err, `unknown evidence status "archived"`)

	err = json.Unmarshal([]byte(`{"status":""}`), &e)
	assert.Error(t, err)
}
