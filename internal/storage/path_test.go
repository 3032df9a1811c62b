package storage

import (
	"testing"
	"time"
)

func TestBuildExportPathUsesUTCDate(t *testing.T) {
	ts := time.Date(2026, time.February, 19, 22, 5, 0, 0, time.FixedZone("x", -5*3600))
	key, err := BuildExportPath("5f1d7c2e-9a4b-4d3e-8f00-1234567890ab", "parquet", ts)
	if err != nil {
		t.Fatalf("BuildExportPath() error = %v", err)
	}
	want := "exports/date=2026-02-20/5f1d7c2e-9a4b-4d3e-8f00-1234567890ab.parquet"
	if key != want {
		t.Fatalf("BuildExportPath() = %q, want %q", key, want)
	}
}

func TestBuildExportPathRejectsInvalidComponent(t *testing.T) {
	if _, err := BuildExportPath("../oops", "csv", time.Now()); err == nil {
		t.Fatal("expected invalid query id error")
	}
	if _, err := BuildExportPath("abc", "c/sv", time.Now()); err == nil {
		t.Fatal("expected invalid extension error")
	}
}
