package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/RodimusGPT/wisekeep-sub001/internal/chunk"
	"github.com/RodimusGPT/wisekeep-sub001/internal/config"
	"github.com/RodimusGPT/wisekeep-sub001/internal/memo"
	"github.com/RodimusGPT/wisekeep-sub001/internal/store"
)

// supportedFormats maps accepted audio file extensions to their
// normalized container type.
var supportedFormats = map[string]string{
	".m4a":  chunk.MIMEMP4,
	".mp4":  chunk.MIMEMP4,
	".aac":  chunk.MIMEMP4,
	".webm": chunk.MIMEWebM,
	".wav":  chunk.MIMEWAV,
	".mp3":  chunk.MIMEMPEG,
	".mpga": chunk.MIMEMPEG,
}

// supportedFormatsList returns a sorted, comma-separated list for error
// messages.
func supportedFormatsList() string {
	formats := make([]string, 0, len(supportedFormats))
	for ext := range supportedFormats {
		formats = append(formats, strings.TrimPrefix(ext, "."))
	}
	slices.Sort(formats)
	return strings.Join(formats, ", ")
}

// mimeForStoredURL recovers the container type from a stored object's
// extension, falling back to the default container.
func mimeForStoredURL(url string) string {
	if mime, ok := supportedFormats[strings.ToLower(filepath.Ext(url))]; ok {
		return mime
	}
	return chunk.MIMEMP4
}

// mimeForFile maps a file path to its container type.
func mimeForFile(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mime, ok := supportedFormats[ext]
	if !ok {
		return "", fmt.Errorf("%s (supported: %s): %w", ext, supportedFormatsList(), ErrUnsupportedFormat)
	}
	return mime, nil
}

// setup is everything a networked command needs: resolved config, the
// local snapshot, and credentials.
type setup struct {
	cfg    config.Config
	store  *store.Store
	apiKey string
}

// loadSetup resolves config, opens the local store, and checks that the
// service credentials are present.
func loadSetup(env *Env) (*setup, error) {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		return nil, err
	}
	if cfg.UserID == "" {
		return nil, ErrUserIDMissing
	}
	if cfg.BackendURL == "" {
		return nil, ErrBackendURLMissing
	}

	apiKey := env.Getenv(config.EnvAPIKey)
	if apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	path, err := cfg.SnapshotPath()
	if err != nil {
		return nil, err
	}
	st, err := env.StoreOpener.Open(path)
	if err != nil {
		return nil, err
	}

	return &setup{cfg: cfg, store: st, apiKey: apiKey}, nil
}

// loadLocal opens the local snapshot without requiring service
// credentials. Offline commands (list, show, export) use this.
func loadLocal(env *Env) (*setup, error) {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		return nil, err
	}
	path, err := cfg.SnapshotPath()
	if err != nil {
		return nil, err
	}
	st, err := env.StoreOpener.Open(path)
	if err != nil {
		return nil, err
	}
	return &setup{cfg: cfg, store: st}, nil
}

// writeFileAtomic writes content to path, refusing to overwrite an
// existing file. On write failure the partial file is removed.
func writeFileAtomic(path string, content []byte) error {
	// #nosec G302 G304 -- user-specified output file with standard permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s: %w", path, ErrOutputExists)
		}
		return fmt.Errorf("cannot create output file: %w", err)
	}

	writeErr := func() error {
		defer func() { _ = f.Close() }()
		if _, err := f.Write(content); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}()

	if writeErr != nil {
		_ = os.Remove(path)
		return writeErr
	}

	return nil
}

// statusLabel renders a status for terminal output.
func statusLabel(s memo.Status) string {
	switch s {
	case memo.StatusProcessingNotes:
		return "transcribing"
	case memo.StatusProcessingSummary:
		return "summarizing"
	default:
		return string(s)
	}
}

// formatTimestamp renders a note offset as mm:ss or h:mm:ss.
func formatTimestamp(seconds float64) string {
	total := int(seconds)
	h, m, s := total/3600, (total/60)%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// formatDuration renders seconds as a compact human duration.
func formatDuration(seconds float64) string {
	total := int(seconds)
	m, s := total/60, total%60
	if m >= 60 {
		return fmt.Sprintf("%dh%02dm", m/60, m%60)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
