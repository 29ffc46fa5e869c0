package convert

import (
	"context"
	"path/filepath"
	"testing"
)

func TestFakeConvertRecordsCalls(t *testing.T) {
	dir := t.TempDir()
	f := &Fake{}

	res, err := f.Convert(context.Background(), filepath.Join(dir, "a.heic"), Options{OutputFormat: "jpg"})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if len(f.Calls) != 1 {
		t.Fatalf("len(f.Calls) = %d; want 1", len(f.Calls))
	}
	if f.Calls[0].DestPath != res.DestPath {
		t.Errorf("recorded call does not match returned result")
	}
}

func TestFakeConvertFailsForConfiguredExt(t *testing.T) {
	f := &Fake{FailExt: ".heic"}
	if _, err := f.Convert(context.Background(), "/in/a.heic", Options{OutputFormat: "jpg"}); err == nil {
		t.Error("expected configured failure extension to error")
	}
}
