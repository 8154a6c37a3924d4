package dataset

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.Nil(t, err)
		_, err = w.Write([]byte(content))
		require.Nil(t, err)
	}
	require.Nil(t, zw.Close())
	return buf.Bytes()
}

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Credentials{Username: "tester", Key: "secret"})
	c.BaseURL = srv.URL
	return c
}

func TestEnsureTrainCSV(t *testing.T) {
	trainContent := "Store,Date,Sales,Open\n4,2015-07-31,11084,1\n"
	archive := buildArchive(t, map[string]string{TrainFile: trainContent})

	var gotPath string
	var gotUser string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, _, _ = r.BasicAuth()
		w.Write(archive)
	})

	dir := t.TempDir()
	path, err := c.EnsureTrainCSV(context.Background(), dir)
	require.Nil(t, err)
	assert.Equal(t, filepath.Join(dir, TrainFile), path)
	assert.Equal(t, "/competitions/data/download-all/"+Competition, gotPath)
	assert.Equal(t, "tester", gotUser)

	content, err := os.ReadFile(path)
	require.Nil(t, err)
	assert.Equal(t, trainContent, string(content))
}

func TestEnsureTrainCSVAlreadyPresent(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("download should be skipped when the file exists")
	})

	dir := t.TempDir()
	require.Nil(t, os.WriteFile(filepath.Join(dir, TrainFile), []byte("Store,Date,Sales,Open\n"), 0o644))

	path, err := c.EnsureTrainCSV(context.Background(), dir)
	require.Nil(t, err)
	assert.Equal(t, filepath.Join(dir, TrainFile), path)
}

func TestDownloadCompetitionBadStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})

	err := c.DownloadCompetition(context.Background(), Competition, t.TempDir())
	assert.ErrorIs(t, err, ErrDownloadFailed)
}

func TestExtractZipNested(t *testing.T) {
	inner := buildArchive(t, map[string]string{TrainFile: "Store,Date,Sales,Open\n"})
	outer := buildArchive(t, map[string]string{"train.csv.zip": string(inner)})

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "bundle.zip")
	require.Nil(t, os.WriteFile(archivePath, outer, 0o644))

	dest := filepath.Join(dir, "out")
	require.Nil(t, ExtractZip(archivePath, dest))

	_, err := os.Stat(filepath.Join(dest, TrainFile))
	assert.Nil(t, err)
}

func TestExtractZipRejectsTraversal(t *testing.T) {
	archive := buildArchive(t, map[string]string{"../escape.txt": "nope"})

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "bundle.zip")
	require.Nil(t, os.WriteFile(archivePath, archive, 0o644))

	err := ExtractZip(archivePath, filepath.Join(dir, "out"))
	assert.ErrorIs(t, err, ErrUnsafeZipPath)
}

func TestLoadCredentialsEnv(t *testing.T) {
	t.Setenv("KAGGLE_USERNAME", "tester")
	t.Setenv("KAGGLE_KEY", "secret")

	creds, err := LoadCredentials()
	require.Nil(t, err)
	assert.Equal(t, Credentials{Username: "tester", Key: "secret"}, creds)
}

func TestLoadCredentialsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kaggle.json")
	require.Nil(t, os.WriteFile(path, []byte(`{"username":"tester","key":"secret"}`), 0o600))

	creds, err := loadCredentialsFile(path)
	require.Nil(t, err)
	assert.Equal(t, "tester", creds.Username)

	_, err = loadCredentialsFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, ErrNoCredentials)
}
