package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cranial-data/landmark.report/internal/align"
)

// TestAlignmentAudit_ScopedPerStudy verifies that alignment history is kept
// per study and returned newest first.
func TestAlignmentAudit_ScopedPerStudy(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	first, err := db.CreateStudy("specimen-a", "")
	require.NoError(t, err)
	second, err := db.CreateStudy("specimen-b", "")
	require.NoError(t, err)

	poR := align.Point3{X: 50, Y: 0, Z: 0}
	poL := align.Point3{X: -50, Y: 0, Z: 0}

	for _, kind := range []string{"frankfort-left", "frankfort-right", "o-se"} {
		m := align.Identity()
		_, err := db.RecordAlignment(first.ID, kind, m, align.Assess(m, poR, poL))
		require.NoError(t, err, "record %s", kind)
	}

	records, err := db.Alignments(first.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, first.ID, r.StudyID)
	}

	// Rows created in the same second fall back to id ordering, newest first.
	assert.Equal(t, "o-se", records[0].Kind)
	assert.Equal(t, "frankfort-left", records[2].Kind)

	// The second study's history is untouched.
	other, err := db.Alignments(second.ID)
	require.NoError(t, err)
	assert.Empty(t, other)
}
