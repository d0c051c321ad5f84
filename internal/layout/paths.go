package layout

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// ErrUnsupportedPlatform is returned when no default Signal location is known.
var ErrUnsupportedPlatform = errors.New("no default Signal location for this platform, use --source")

const (
	TranscriptFile = "index.md"
	HTMLFile       = "index.html"
	MediaDir       = "media"
	StylesheetFile = "style.css"
	LockFile       = ".sigexport.lock"
)

// BaseDir returns ~/.sigexport.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".sigexport")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// DefaultSource returns the Signal Desktop data directory for the running OS.
func DefaultSource() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	switch runtime.GOOS {
	case "linux":
		return filepath.Join(home, ".config", "Signal"), nil
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Signal"), nil
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "Signal"), nil
	default:
		return "", ErrUnsupportedPlatform
	}
}

// KeyConfigPath returns the Signal config.json holding the database key.
func KeyConfigPath(source string) string {
	return filepath.Join(source, "config.json")
}

// DBPath returns the encrypted message database path.
func DBPath(source string) string {
	return filepath.Join(source, "sql", "db.sqlite")
}

// AttachmentsRoot returns the directory attachment paths are relative to.
func AttachmentsRoot(source string) string {
	return filepath.Join(source, "attachments.noindex")
}

// ChatDir returns the export directory for one conversation.
func ChatDir(dest, name string) string {
	return filepath.Join(dest, name)
}

// TranscriptPath returns {dest}/{name}/index.md.
func TranscriptPath(dest, name string) string {
	return filepath.Join(ChatDir(dest, name), TranscriptFile)
}

// HTMLPath returns {dest}/{name}/index.html.
func HTMLPath(dest, name string) string {
	return filepath.Join(ChatDir(dest, name), HTMLFile)
}

// MediaPath returns {dest}/{name}/media.
func MediaPath(dest, name string) string {
	return filepath.Join(ChatDir(dest, name), MediaDir)
}

// StylesheetPath returns the shared stylesheet at the destination root.
func StylesheetPath(dest string) string {
	return filepath.Join(dest, StylesheetFile)
}

// EnsureChatDir creates the conversation directory and its media folder.
func EnsureChatDir(dest, name string) error {
	return os.MkdirAll(MediaPath(dest, name), 0755)
}

// ChatDirs lists the conversation directories under an export root, sorted by name.
func ChatDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
