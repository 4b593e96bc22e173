package infra

// backup.go: zip packaging of SQLite backup snapshots.

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const (
	BackupSnapshot = "backup_database.db"
	BackupManifest = "manifest.json"
	BackupVersion  = 1
)

// ErrBackupInvalido is returned for archives that are not a consigna backup.
var ErrBackupInvalido = errors.New("backup: archivo inválido")

// ManifestBackup describes the snapshot stored next to it in the archive.
type ManifestBackup struct {
	Version    int              `json:"version"`
	CreatedAt  time.Time        `json:"created_at"`
	Tablas     map[string]int64 `json:"tablas"`
	// Secuencias holds the last id handed out per table on PostgreSQL, so a
	// restore never reissues the id of a row deleted before the export.
	Secuencias map[string]int64 `json:"secuencias,omitempty"`
}

// EscribirBackupZip streams a zip with the SQLite file at snapshotPath and
// its manifest.
func EscribirBackupZip(w io.Writer, snapshotPath string, m ManifestBackup) error {
	src, err := os.Open(snapshotPath)
	if err != nil {
		return fmt.Errorf("backup: abrir snapshot: %w", err)
	}
	defer src.Close()

	zw := zip.NewWriter(w)
	fw, err := zw.CreateHeader(&zip.FileHeader{
		Name:     BackupSnapshot,
		Method:   zip.Deflate,
		Modified: m.CreatedAt,
	})
	if err != nil {
		return err
	}
	if _, err := io.Copy(fw, src); err != nil {
		return fmt.Errorf("backup: copiar snapshot: %w", err)
	}

	mw, err := zw.Create(BackupManifest)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(mw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return err
	}
	return zw.Close()
}

// ExtraerBackupZip unpacks the snapshot into dir and returns its path
// together with the manifest.
func ExtraerBackupZip(r io.ReaderAt, size int64, dir string) (string, *ManifestBackup, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBackupInvalido, err)
	}

	var (
		snapshot string
		manifest *ManifestBackup
	)
	for _, f := range zr.File {
		switch f.Name {
		case BackupSnapshot:
			snapshot = filepath.Join(dir, BackupSnapshot)
			if err := extraer(f, snapshot); err != nil {
				return "", nil, err
			}
		case BackupManifest:
			rc, err := f.Open()
			if err != nil {
				return "", nil, err
			}
			var m ManifestBackup
			err = json.NewDecoder(rc).Decode(&m)
			rc.Close()
			if err != nil {
				return "", nil, fmt.Errorf("%w: manifest: %v", ErrBackupInvalido, err)
			}
			manifest = &m
		}
	}

	if snapshot == "" || manifest == nil {
		return "", nil, fmt.Errorf("%w: se esperaba %s y %s", ErrBackupInvalido, BackupSnapshot, BackupManifest)
	}
	if manifest.Version > BackupVersion {
		return "", nil, fmt.Errorf("%w: versión %d no soportada", ErrBackupInvalido, manifest.Version)
	}
	return snapshot, manifest, nil
}

func extraer(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackupInvalido, err)
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("%w: %v", ErrBackupInvalido, err)
	}
	return out.Close()
}
