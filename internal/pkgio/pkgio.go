// Package pkgio moves between a zipped .apkg-style package on disk and a
// working directory plus a single embedded SQL database file, grounded on
// the teacher's backup.go zip walk-and-write and the original
// apkg_manager.py extract/package lifecycle.
package pkgio

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ankidote/ankidote/internal/ankerr"
)

const (
	// DBNameV21 is the v21-schema database filename inside the archive.
	DBNameV21 = "collection.anki21"
	// DBNameV2 is the v2-schema database filename inside the archive.
	DBNameV2 = "collection.anki2"
)

// Package represents an open, extracted .apkg archive: a temp directory
// holding its contents, plus the path and detected schema version of the
// database file chosen from within it.
type Package struct {
	archivePath string
	tempDir     string
	readOnly    bool

	DBPath    string
	DBVersion int // 2 or 21
}

// Open extracts path into a fresh temporary directory and selects the
// embedded database: v21 is preferred when both collection.anki21 and
// collection.anki2 are present, per original_source/apkg_manager.py. When
// readOnly, only the chosen database file is extracted; otherwise the
// entire archive is extracted so that media files and the manifest survive
// a later repackage verbatim.
func Open(path string, readOnly bool) (*Package, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening package %q: %w", path, err)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening package %q: %w", path, err)
	}
	defer zr.Close()

	var dbFile *zip.File
	dbVersion := 0
	var v2File *zip.File
	for _, f := range zr.File {
		switch f.Name {
		case DBNameV21:
			dbFile = f
			dbVersion = 21
		case DBNameV2:
			v2File = f
		}
	}
	if dbFile == nil {
		if v2File == nil {
			return nil, fmt.Errorf("package %q: %w", path, ankerr.ErrPackageInvalid)
		}
		dbFile = v2File
		dbVersion = 2
	}

	tempDir, err := os.MkdirTemp("", "ankidote-pkg-*")
	if err != nil {
		return nil, fmt.Errorf("creating working directory: %w", err)
	}

	p := &Package{archivePath: path, tempDir: tempDir, readOnly: readOnly, DBVersion: dbVersion}

	if readOnly {
		if err := extractOne(tempDir, dbFile); err != nil {
			os.RemoveAll(tempDir)
			return nil, err
		}
	} else {
		for _, f := range zr.File {
			if err := extractOne(tempDir, f); err != nil {
				os.RemoveAll(tempDir)
				return nil, err
			}
		}
	}

	p.DBPath = filepath.Join(tempDir, filepath.FromSlash(dbFile.Name))
	return p, nil
}

func extractOne(destDir string, f *zip.File) error {
	destPath := filepath.Join(destDir, filepath.FromSlash(f.Name))
	if f.FileInfo().IsDir() {
		return os.MkdirAll(destPath, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("extracting %q: %w", f.Name, err)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("extracting %q: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("extracting %q: %w", f.Name, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("extracting %q: %w", f.Name, err)
	}
	return nil
}

// Package writes a deflate-compressed archive to outputPath containing
// every file currently in the working directory, preserving relative
// paths. Refuses to overwrite an existing file and refuses to run in
// read-only mode. Creates parent directories of outputPath as needed.
func (p *Package) Package(outputPath string) error {
	if p.readOnly {
		return fmt.Errorf("packaging %q: %w: package opened read-only", outputPath, ankerr.ErrStateError)
	}
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("packaging %q: %w", outputPath, ankerr.ErrOutputExists)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating output package: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	defer zw.Close()

	err = filepath.Walk(p.tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(p.tempDir, path)
		if err != nil {
			return err
		}
		return addFileToZip(zw, path, filepath.ToSlash(rel))
	})
	if err != nil {
		return fmt.Errorf("packaging %q: %w", outputPath, err)
	}
	return nil
}

func addFileToZip(zw *zip.Writer, srcPath, arcname string) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: arcname, Method: zip.Deflate})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

// Close removes the working directory, even if this package was never
// repackaged. Safe to call multiple times.
func (p *Package) Close() error {
	if p.tempDir == "" {
		return nil
	}
	err := os.RemoveAll(p.tempDir)
	p.tempDir = ""
	if err != nil {
		return fmt.Errorf("cleaning up working directory: %w", err)
	}
	return nil
}
