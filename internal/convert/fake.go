package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Fake is a ConversionService double: it "converts" by computing the
// destination path (with the same collision rules as ExecService),
// writing a placeholder file there, and recording the call, without
// invoking any external process. Useful for testing the pipeline without
// a real converter.
type Fake struct {
	Calls []Result
	// FailExt, if set, makes Convert fail for sources with this extension.
	FailExt string
}

func (f *Fake) CanConvert(ext string) bool {
	return supportedExts[normalizeExt(ext)]
}

func (f *Fake) Convert(_ context.Context, srcPath string, opts Options) (Result, error) {
	if f.FailExt != "" && normalizeExt(filepath.Ext(srcPath)) == normalizeExt(f.FailExt) {
		return Result{}, fmt.Errorf("fake conversion failure for %s", srcPath)
	}
	if !f.CanConvert(filepath.Ext(srcPath)) {
		return Result{}, fmt.Errorf("unsupported format: %s", filepath.Ext(srcPath))
	}

	dest, err := resolveDest(srcPath, opts.OutputDir, opts.OutputFormat)
	if err != nil {
		return Result{}, err
	}
	if err := os.WriteFile(dest, []byte("fake-converted"), 0o644); err != nil {
		return Result{}, fmt.Errorf("write fake converted output: %w", err)
	}

	res := Result{SrcPath: srcPath, DestPath: dest, Format: opts.OutputFormat}
	f.Calls = append(f.Calls, res)
	return res, nil
}
