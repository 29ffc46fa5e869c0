// Package convert defines the pluggable ConversionService contract and a
// default, exec-based implementation. The concrete image-conversion tool
// is deliberately not this core's concern: a platform-appropriate binary
// is wired in by the host (CLI flag, config field, or a test double).
package convert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dwrtz/namefixd/internal/pathutil"
)

// supportedExts is the extension set ConversionService implementations
// accept as convert sources.
var supportedExts = map[string]bool{
	".heic": true, ".heif": true, ".png": true, ".jpg": true,
	".jpeg": true, ".tiff": true, ".bmp": true, ".gif": true,
}

// Options configures one conversion call.
type Options struct {
	OutputFormat string
	OutputDir    string
	Quality      int // substituted for "{quality}" whatever the OutputFormat; 0 means default (90)
}

// Result reports what a successful conversion produced.
type Result struct {
	SrcPath    string
	DestPath   string
	Format     string
	DurationMs int64
}

// Service is the core's view of a conversion backend.
type Service interface {
	CanConvert(ext string) bool
	Convert(ctx context.Context, srcPath string, opts Options) (Result, error)
}

// ExecService shells out to an external converter binary, the way a
// platform-appropriate tool (sips, magick, heif-convert, ...) would be
// wired in by the host application.
type ExecService struct {
	// Binary is the converter executable; Args is invoked as
	// Binary Args... with "{src}", "{dest}", "{format}", "{quality}"
	// placeholders substituted.
	Binary string
	Args   []string
}

// NewExecService builds an ExecService invoking binary with args, where
// args may reference the "{src}", "{dest}", "{format}", and "{quality}"
// placeholders.
func NewExecService(binary string, args []string) *ExecService {
	return &ExecService{Binary: binary, Args: args}
}

// CanConvert reports whether ext (case-insensitive, with or without a
// leading dot) is one of the formats this core treats as convertible.
func (s *ExecService) CanConvert(ext string) bool {
	return supportedExts[normalizeExt(ext)]
}

// Convert resolves the destination path (outputDir, or the source
// directory, collision-resolved with `_2, _3, ...`), shells out to the
// configured binary, and reports the elapsed time. A non-zero exit from
// the converter is a descriptive error including its stderr.
func (s *ExecService) Convert(ctx context.Context, srcPath string, opts Options) (Result, error) {
	if !s.CanConvert(filepath.Ext(srcPath)) {
		return Result{}, fmt.Errorf("unsupported format: %s", filepath.Ext(srcPath))
	}

	quality := opts.Quality
	if quality == 0 {
		quality = 90
	}

	destPath, err := resolveDest(srcPath, opts.OutputDir, opts.OutputFormat)
	if err != nil {
		return Result{}, err
	}

	args := make([]string, len(s.Args))
	for i, a := range s.Args {
		a = strings.ReplaceAll(a, "{src}", srcPath)
		a = strings.ReplaceAll(a, "{dest}", destPath)
		a = strings.ReplaceAll(a, "{format}", opts.OutputFormat)
		a = strings.ReplaceAll(a, "{quality}", strconv.Itoa(quality))
		args[i] = a
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, s.Binary, args...)
	output, err := cmd.CombinedOutput()
	duration := time.Since(start)
	if err != nil {
		return Result{}, fmt.Errorf("convert %s to %s: %w: %s", srcPath, opts.OutputFormat, err, strings.TrimSpace(string(output)))
	}

	return Result{
		SrcPath:    srcPath,
		DestPath:   destPath,
		Format:     opts.OutputFormat,
		DurationMs: duration.Milliseconds(),
	}, nil
}

func resolveDest(srcPath, outputDir, format string) (string, error) {
	dir := outputDir
	if dir == "" {
		dir = filepath.Dir(srcPath)
	}

	base := filepath.Base(srcPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	name := stem + "." + format

	dest, err := pathutil.SecureJoin(dir, name)
	if err != nil {
		return "", fmt.Errorf("resolve destination for %s: %w", srcPath, err)
	}

	return collisionResolve(dest), nil
}

func collisionResolve(path string) string {
	if !exists(path) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, n, ext)
		if !exists(candidate) {
			return candidate
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func normalizeExt(ext string) string {
	lowered := strings.ToLower(ext)
	if !strings.HasPrefix(lowered, ".") {
		lowered = "." + lowered
	}
	return lowered
}
