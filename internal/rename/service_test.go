package rename

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dwrtz/namefixd/internal/nametemplate"
	"github.com/dwrtz/namefixd/internal/profile"
)

func TestTargetForProfileAvoidsOnDiskCollision(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "Screenshot 1.png")

	p := profile.Profile{Template: "fixed_name", Prefix: "x"}
	ctx := nametemplate.Context{Birthtime: time.Now(), OriginalPath: srcPath, Ext: ".png"}

	existing := filepath.Join(dir, "fixed_name.png")
	if err := os.WriteFile(existing, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	svc := New()
	res, err := svc.TargetForProfile(srcPath, ctx, p)
	if err != nil {
		t.Fatalf("TargetForProfile() error = %v", err)
	}
	if res.Filename != "fixed_name_2.png" {
		t.Errorf("Filename = %q; want fixed_name_2.png", res.Filename)
	}
}

func TestTargetForProfileReservesAcrossConcurrentCalls(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "Screenshot 1.png")

	p := profile.Profile{Template: "fixed_name", Prefix: "x"}
	ctx := nametemplate.Context{Birthtime: time.Now(), OriginalPath: srcPath, Ext: ".png"}

	svc := New()
	first, err := svc.TargetForProfile(srcPath, ctx, p)
	if err != nil {
		t.Fatalf("TargetForProfile() first error = %v", err)
	}

	second, err := svc.TargetForProfile(srcPath, ctx, p)
	if err != nil {
		t.Fatalf("TargetForProfile() second error = %v", err)
	}
	if first.Filename == second.Filename {
		t.Fatalf("expected distinct reserved filenames, both got %q", first.Filename)
	}

	svc.Release(first)
	third, err := svc.TargetForProfile(srcPath, ctx, p)
	if err != nil {
		t.Fatalf("TargetForProfile() third error = %v", err)
	}
	if third.Filename != first.Filename {
		t.Errorf("expected released reservation %q to be reusable, got %q", first.Filename, third.Filename)
	}
}

func TestNeedsRenameForProfile(t *testing.T) {
	p := profile.Profile{}
	if NeedsRenameForProfile("Screenshot_2026-03-05_14-30-45.png", p) {
		t.Error("expected already-templated name to not need rename")
	}
	if !NeedsRenameForProfile("Screenshot 1.png", p) {
		t.Error("expected raw source name to need rename")
	}
}
