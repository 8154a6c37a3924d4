package dataset

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://www.kaggle.com/api/v1"

	// Competition is the kaggle competition holding the store sales history.
	Competition = "rossmann-store-sales"

	// TrainFile is the sales history file inside the competition archive.
	TrainFile = "train.csv"
)

var (
	ErrDownloadFailed = errors.New("dataset download failed")
	ErrUnsafeZipPath  = errors.New("archive entry escapes destination directory")
)

// Client downloads competition archives from the kaggle api.
type Client struct {
	BaseURL    string
	Creds      Credentials
	HTTPClient *http.Client
}

func NewClient(creds Credentials) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		Creds:   creds,
		HTTPClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// EnsureTrainCSV returns the path of the training file under dir downloading
// and extracting the competition archive when the file is not already there.
func (c *Client) EnsureTrainCSV(ctx context.Context, dir string) (string, error) {
	path := filepath.Join(dir, TrainFile)
	if _, err := os.Stat(path); err == nil {
		slog.Debug("training file already present", "path", path)
		return path, nil
	}

	if err := c.DownloadCompetition(ctx, Competition, dir); err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%s missing after extracting %s, %w", TrainFile, Competition, ErrDownloadFailed)
	}
	return path, nil
}

// DownloadCompetition fetches the full competition archive and extracts it
// into destDir.
func (c *Client) DownloadCompetition(ctx context.Context, competition, destDir string) error {
	url := fmt.Sprintf("%s/competitions/data/download-all/%s", c.BaseURL, competition)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("unable to build download request, %w", err)
	}
	req.SetBasicAuth(c.Creds.Username, c.Creds.Key)

	slog.Info("downloading competition archive", "competition", competition)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("unable to download %s, %w", competition, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s downloading %s, %w", resp.Status, competition, ErrDownloadFailed)
	}

	archive, err := os.CreateTemp("", competition+"-*.zip")
	if err != nil {
		return fmt.Errorf("unable to create archive file, %w", err)
	}
	defer os.Remove(archive.Name())
	defer archive.Close()

	if _, err := io.Copy(archive, resp.Body); err != nil {
		return fmt.Errorf("unable to save archive, %w", err)
	}

	return ExtractZip(archive.Name(), destDir)
}

// ExtractZip unpacks the archive at path into destDir. Nested archives such
// as train.csv.zip inside the competition bundle are unpacked as well.
func ExtractZip(path, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("unable to create destination directory, %w", err)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("unable to open archive, %w", err)
	}
	defer zr.Close()

	var nested []string
	for _, f := range zr.File {
		target, err := safeJoin(destDir, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
		if strings.HasSuffix(f.Name, ".zip") {
			nested = append(nested, target)
		}
	}

	for _, nestedPath := range nested {
		if err := ExtractZip(nestedPath, destDir); err != nil {
			return err
		}
	}
	return nil
}

func safeJoin(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.Clean(name))
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("%q, %w", name, ErrUnsafeZipPath)
	}
	return target, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
