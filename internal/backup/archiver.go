package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/karrick/godirwalk"
	"github.com/klauspost/compress/zip"
)

const (
	// NamePrefix starts every archive file name.
	NamePrefix = "surplus_backup_"

	// TimestampLayout is the local-time stamp embedded in archive names.
	TimestampLayout = "20060102_150405"

	// ContentType is the MIME type of the produced archives.
	ContentType = "application/zip"
)

// DefaultExclude returns the directory names that are never archived.
func DefaultExclude() []string {
	return []string{"backups", ".venv", "venv", "__pycache__", ".git"}
}

// ErrNoRoot is returned when the Archiver has no root directory.
var ErrNoRoot = errors.New("backup root directory is not set")

// Archiver creates ZIP snapshots of Root inside Dir.
type Archiver struct {
	// Root is the directory tree to snapshot.
	Root string

	// Dir receives the archives. It is created if missing.
	Dir string

	// Exclude lists directory base names pruned from the walk, at any depth.
	Exclude []string

	// Now returns the current time. time.Now is used when nil.
	Now func() time.Time

	// Logger receives per-run diagnostics. slog.Default() is used when nil.
	Logger *slog.Logger
}

// NewArchiver returns an Archiver for root writing into dir, excluding the
// DefaultExclude names.
func NewArchiver(root, dir string) *Archiver {
	return &Archiver{
		Root:    root,
		Dir:     dir,
		Exclude: DefaultExclude(),
	}
}

// Result describes a written archive.
type Result struct {
	// Path is the absolute path of the archive file.
	Path string

	// Name is the base name of the archive file.
	Name string

	// Files lists the archive member names in the order they were written.
	Files []string

	// Size is the archive size in bytes.
	Size int64
}

// Create writes a new archive and returns its description.
//
// Any filesystem error aborts the run; the partially written archive is
// removed before the error is returned. Cancelling ctx aborts between files.
func (a *Archiver) Create(ctx context.Context) (result *Result, err error) {
	if a.Root == "" {
		return nil, ErrNoRoot
	}

	root, err := filepath.Abs(a.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve backup root: %w", err)
	}
	dir := a.Dir
	if dir == "" {
		dir = filepath.Join(root, "backups")
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve backup directory: %w", err)
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	outFile, outPath, err := a.createArchiveFile(dir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = outFile.Close()
			_ = os.Remove(outPath)
		}
	}()

	writer := zip.NewWriter(outFile)
	files, err := a.walk(ctx, writer, root, outPath)
	if err != nil {
		_ = writer.Close()
		return nil, err
	}

	if err = writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err = outFile.Close(); err != nil {
		return nil, fmt.Errorf("failed to close archive: %w", err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}

	a.logger().Info("backup created",
		"path", outPath,
		"files", len(files),
		"bytes", info.Size(),
	)

	return &Result{
		Path:  outPath,
		Name:  filepath.Base(outPath),
		Files: files,
		Size:  info.Size(),
	}, nil
}

// createArchiveFile creates a new, previously nonexistent archive in dir.
// A second archive within the same second gets a numeric suffix.
func (a *Archiver) createArchiveFile(dir string) (*os.File, string, error) {
	stamp := a.now().Format(TimestampLayout)

	for n := 1; ; n++ {
		name := NamePrefix + stamp + ".zip"
		if n > 1 {
			name = fmt.Sprintf("%s%s_%d.zip", NamePrefix, stamp, n)
		}
		path := filepath.Join(dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640) //nolint:gosec // path is built from the configured backup dir
		if err == nil {
			return f, path, nil
		}
		if !os.IsExist(err) {
			return nil, "", fmt.Errorf("failed to create archive: %w", err)
		}
	}
}

// walk adds every eligible file under root to writer and returns the member names.
func (a *Archiver) walk(ctx context.Context, writer *zip.Writer, root, archivePath string) ([]string, error) {
	exclude := make(map[string]bool, len(a.Exclude))
	for _, name := range a.Exclude {
		exclude[name] = true
	}

	var files []string
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			if de.IsDir() {
				if osPathname != root && exclude[de.Name()] {
					return godirwalk.SkipThis
				}
				return nil
			}

			if filepath.Clean(osPathname) == archivePath {
				return nil
			}

			rel, err := filepath.Rel(root, osPathname)
			if err != nil {
				return fmt.Errorf("failed to relativize %s: %w", osPathname, err)
			}
			if underExcluded(rel, exclude) {
				return nil
			}

			if !a.archivable(osPathname, de) {
				return nil
			}

			name := filepath.ToSlash(rel)
			if err := addFile(writer, osPathname, name); err != nil {
				return err
			}
			files = append(files, name)
			return nil
		},
		ErrorCallback: func(_ string, _ error) godirwalk.ErrorAction {
			return godirwalk.Halt
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return files, nil
}

// archivable reports whether the entry is a regular file or a symlink to one.
// Linked files are archived with the target's contents under the link's name.
// Links to directories are not descended into, and dangling links are skipped.
func (a *Archiver) archivable(osPathname string, de *godirwalk.Dirent) bool {
	if de.IsRegular() {
		return true
	}
	if !de.IsSymlink() {
		a.logger().Debug("skipping non-regular file", "path", osPathname)
		return false
	}

	info, err := os.Stat(osPathname)
	if err != nil {
		a.logger().Debug("skipping dangling symlink", "path", osPathname, "error", err)
		return false
	}
	if !info.Mode().IsRegular() {
		a.logger().Debug("skipping symlink to non-regular file", "path", osPathname)
		return false
	}
	return true
}

// underExcluded reports whether any component of rel is an excluded name.
func underExcluded(rel string, exclude map[string]bool) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if exclude[part] {
			return true
		}
	}
	return false
}

// addFile deflates the file at path into writer under name.
func addFile(writer *zip.Writer, path, name string) error {
	file, err := os.Open(path) //nolint:gosec // walking our own tree
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("failed to build header for %s: %w", path, err)
	}
	header.Name = name
	header.Method = zip.Deflate

	entry, err := writer.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := io.Copy(entry, file); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (a *Archiver) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *Archiver) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
