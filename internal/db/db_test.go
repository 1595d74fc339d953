package db

import (
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/cranial-data/landmark.report/internal/align"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	fname := t.Name() + ".db"
	_ = os.Remove(fname)

	db, err := NewDB(fname)
	if err != nil {
		t.Fatalf("failed to create test DB: %v", err)
	}
	return db
}

func cleanupTestDB(t *testing.T, db *DB) {
	t.Helper()
	fname := t.Name() + ".db"
	db.Close()
	_ = os.Remove(fname)
	_ = os.Remove(fname + "-shm")
	_ = os.Remove(fname + "-wal")
}

func TestCreateAndGetStudy(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	study, err := db.CreateStudy("specimen-042", "names.txt")
	if err != nil {
		t.Fatalf("CreateStudy failed: %v", err)
	}
	if study.ID == "" {
		t.Fatal("expected a generated study id")
	}

	got, err := db.GetStudy(study.ID)
	if err != nil {
		t.Fatalf("GetStudy failed: %v", err)
	}
	if got.Name != "specimen-042" || got.NamesFile != "names.txt" {
		t.Errorf("study = %+v, wrong fields", got)
	}
}

func TestGetStudy_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	_, err := db.GetStudy("nope")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestListStudies_NewestFirst(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	for _, name := range []string{"a", "b", "c"} {
		if _, err := db.CreateStudy(name, ""); err != nil {
			t.Fatalf("CreateStudy(%s) failed: %v", name, err)
		}
	}

	studies, err := db.ListStudies()
	if err != nil {
		t.Fatalf("ListStudies failed: %v", err)
	}
	if len(studies) != 3 {
		t.Fatalf("got %d studies, want 3", len(studies))
	}
}

func TestUpsertFiducial_OverwritesIndex(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	study, err := db.CreateStudy("s", "")
	if err != nil {
		t.Fatalf("CreateStudy failed: %v", err)
	}

	first := Fiducial{StudyID: study.ID, Index: 0, Name: "poR", X: 1, Y: 2, Z: 3}
	if err := db.UpsertFiducial(first); err != nil {
		t.Fatalf("UpsertFiducial failed: %v", err)
	}

	// Re-digitizing the same landmark replaces the earlier placement.
	second := Fiducial{StudyID: study.ID, Index: 0, Name: "poR", X: 9, Y: 8, Z: 7}
	if err := db.UpsertFiducial(second); err != nil {
		t.Fatalf("UpsertFiducial (overwrite) failed: %v", err)
	}

	fids, err := db.Fiducials(study.ID)
	if err != nil {
		t.Fatalf("Fiducials failed: %v", err)
	}
	if len(fids) != 1 {
		t.Fatalf("got %d fiducials, want 1", len(fids))
	}
	if fids[0].X != 9 || fids[0].Y != 8 || fids[0].Z != 7 {
		t.Errorf("fiducial = %+v, want overwritten position (9,8,7)", fids[0])
	}
}

func TestFiducials_OrderedByIndex(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	study, err := db.CreateStudy("s", "")
	if err != nil {
		t.Fatalf("CreateStudy failed: %v", err)
	}

	// Insert out of order; reads must come back index-ordered because the
	// fiducial collection contract is positional.
	for _, idx := range []int{2, 0, 1} {
		f := Fiducial{StudyID: study.ID, Index: idx, X: float64(idx)}
		if err := db.UpsertFiducial(f); err != nil {
			t.Fatalf("UpsertFiducial(%d) failed: %v", idx, err)
		}
	}

	fids, err := db.Fiducials(study.ID)
	if err != nil {
		t.Fatalf("Fiducials failed: %v", err)
	}
	for i, f := range fids {
		if f.Index != i {
			t.Errorf("fiducial[%d].Index = %d, want %d", i, f.Index, i)
		}
	}
}

func TestPlacedPoints_StopsAtGap(t *testing.T) {
	fids := []Fiducial{
		{Index: 0, X: 1},
		{Index: 1, X: 2},
		// index 2 never placed
		{Index: 3, X: 4},
	}

	points := PlacedPoints(fids)
	if len(points) != 2 {
		t.Fatalf("got %d placed points, want 2 (run ends at the gap)", len(points))
	}
	if points[1].X != 2 {
		t.Errorf("point 1 = %+v, want X=2", points[1])
	}

	if got := PlacedPoints(nil); len(got) != 0 {
		t.Errorf("PlacedPoints(nil) = %v, want empty", got)
	}
}

func TestRecordAndListAlignments(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	study, err := db.CreateStudy("s", "")
	if err != nil {
		t.Fatalf("CreateStudy failed: %v", err)
	}

	m := align.RotationZ(0.25)
	assessment := align.Assess(m, align.Point3{X: 50, Y: 0, Z: 0}, align.Point3{X: -50, Y: 0, Z: 0})

	id, err := db.RecordAlignment(study.ID, "frankfort-left", m, assessment)
	if err != nil {
		t.Fatalf("RecordAlignment failed: %v", err)
	}
	if id == 0 {
		t.Error("expected a nonzero alignment id")
	}

	records, err := db.Alignments(study.ID)
	if err != nil {
		t.Fatalf("Alignments failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d alignment records, want 1", len(records))
	}
	if records[0].Matrix != m {
		t.Error("matrix did not round-trip through storage")
	}
	if records[0].Kind != "frankfort-left" {
		t.Errorf("kind = %q, want frankfort-left", records[0].Kind)
	}
}

func TestMigrateUp_FreshDatabase(t *testing.T) {
	fname := t.Name() + ".db"
	_ = os.Remove(fname)
	defer os.Remove(fname)

	db, err := OpenDB(fname)
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	defer db.Close()

	if err := db.MigrateUp(); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}

	version, dirty, err := db.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if dirty {
		t.Error("migration left database dirty")
	}
	if version == 0 {
		t.Error("expected nonzero migration version")
	}

	// Schema must be usable after migration.
	if _, err := db.CreateStudy("post-migrate", ""); err != nil {
		t.Errorf("CreateStudy after migration failed: %v", err)
	}
}
