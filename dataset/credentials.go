package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
)

var ErrNoCredentials = errors.New("no kaggle credentials found")

// Credentials holds the kaggle api token used to download the competition
// archive.
type Credentials struct {
	Username string `json:"username"`
	Key      string `json:"key"`
}

// LoadCredentials resolves the kaggle credentials from the KAGGLE_USERNAME
// and KAGGLE_KEY environment variables falling back to ~/.kaggle/kaggle.json.
func LoadCredentials() (Credentials, error) {
	username := os.Getenv("KAGGLE_USERNAME")
	key := os.Getenv("KAGGLE_KEY")
	if username != "" && key != "" {
		return Credentials{Username: username, Key: key}, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return Credentials{}, fmt.Errorf("unable to resolve home directory, %w", ErrNoCredentials)
	}
	return loadCredentialsFile(filepath.Join(home, ".kaggle", "kaggle.json"))
}

func loadCredentialsFile(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("unable to read %s, %w", path, ErrNoCredentials)
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("unable to parse %s: %v, %w", path, err, ErrNoCredentials)
	}
	if creds.Username == "" || creds.Key == "" {
		return Credentials{}, fmt.Errorf("empty username or key in %s, %w", path, ErrNoCredentials)
	}
	return creds, nil
}
