package infra_test

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"consigna/internal/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipCon(t *testing.T, files map[string][]byte) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return bytes.NewReader(buf.Bytes())
}

func TestBackupZip_IdaYVuelta(t *testing.T) {
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "origen.db")
	require.NoError(t, os.WriteFile(snapshot, []byte("sqlite-bytes"), 0o600))

	m := infra.ManifestBackup{
		Version:    infra.BackupVersion,
		CreatedAt:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Tablas:     map[string]int64{"remitos": 3},
		Secuencias: map[string]int64{"remitos": 5},
	}
	var buf bytes.Buffer
	require.NoError(t, infra.EscribirBackupZip(&buf, snapshot, m))

	out := t.TempDir()
	path, got, err := infra.ExtraerBackupZip(bytes.NewReader(buf.Bytes()), int64(buf.Len()), out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, infra.BackupSnapshot), path)
	assert.Equal(t, int64(3), got.Tablas["remitos"])
	assert.Equal(t, int64(5), got.Secuencias["remitos"])
	assert.True(t, m.CreatedAt.Equal(got.CreatedAt))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite-bytes", string(raw))
}

func TestBackupZip_Invalidos(t *testing.T) {
	manifest, err := json.Marshal(infra.ManifestBackup{Version: infra.BackupVersion})
	require.NoError(t, err)
	futuro, err := json.Marshal(infra.ManifestBackup{Version: infra.BackupVersion + 1})
	require.NoError(t, err)

	tests := []struct {
		name  string
		files map[string][]byte
	}{
		{"sin manifest", map[string][]byte{infra.BackupSnapshot: []byte("x")}},
		{"sin snapshot", map[string][]byte{infra.BackupManifest: manifest}},
		{"manifest roto", map[string][]byte{infra.BackupSnapshot: []byte("x"), infra.BackupManifest: []byte("{")}},
		{"versión futura", map[string][]byte{infra.BackupSnapshot: []byte("x"), infra.BackupManifest: futuro}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := zipCon(t, tc.files)
			_, _, err := infra.ExtraerBackupZip(r, r.Size(), t.TempDir())
			assert.True(t, errors.Is(err, infra.ErrBackupInvalido), "got %v", err)
		})
	}

	_, _, err = infra.ExtraerBackupZip(bytes.NewReader([]byte("no zip")), 6, t.TempDir())
	assert.True(t, errors.Is(err, infra.ErrBackupInvalido))
}
