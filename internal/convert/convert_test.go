package convert

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestExecServiceCanConvert(t *testing.T) {
	s := NewExecService("true", nil)
	if !s.CanConvert(".heic") || !s.CanConvert("HEIC") {
		t.Error("expected .heic to be convertible, case/dot insensitive")
	}
	if s.CanConvert(".mp4") {
		t.Error("expected .mp4 to not be convertible")
	}
}

func TestExecServiceConvertRunsBinaryAndResolvesDest(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.heic")
	if err := os.WriteFile(src, []byte("fake"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s := NewExecService("true", []string{"{src}", "{dest}", "{format}"})
	res, err := s.Convert(context.Background(), src, Options{OutputFormat: "jpg"})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	want := filepath.Join(dir, "photo.jpg")
	if res.DestPath != want {
		t.Errorf("DestPath = %q; want %q", res.DestPath, want)
	}
}

func TestExecServiceConvertFailsOnNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.heic")
	if err := os.WriteFile(src, []byte("fake"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s := NewExecService("false", nil)
	if _, err := s.Convert(context.Background(), src, Options{OutputFormat: "jpg"}); err == nil {
		t.Error("expected error from a failing converter binary")
	}
}

func TestCollisionResolveAppendsCounter(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "out.jpg")
	if err := os.WriteFile(existing, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got := collisionResolve(existing)
	want := filepath.Join(dir, "out_2.jpg")
	if got != want {
		t.Errorf("collisionResolve() = %q; want %q", got, want)
	}
}
