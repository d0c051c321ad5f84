package transcript

import (
	"os"
	"strings"

	"github.com/matheus3301/sigexport/internal/layout"
)

// WriteFile replaces the transcript at path with the given records.
func WriteFile(path string, records []string) error {
	return layout.WriteFileAtomic(path, []byte(strings.Join(records, "")))
}

// ReadFile parses the transcript at path.
func ReadFile(path string) (records []Record, leading string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	records, leading = Parse(string(data))
	return records, leading, nil
}
