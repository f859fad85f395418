package vacancy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Source loads the full vacancy corpus from some backing store.
type Source interface {
	Load(ctx context.Context) ([]*Record, error)
}

// FileSource reads a JSON array of records from disk.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Load(_ context.Context) ([]*Record, error) {
	path := strings.TrimSpace(s.Path)
	if path == "" {
		return nil, fmt.Errorf("vacancies file is not configured")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vacancies file %q: %w", path, err)
	}

	records, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding vacancies file %q: %w", path, err)
	}

	return records, nil
}

// Decode parses a JSON array of records and normalizes their work formats.
func Decode(data []byte) ([]*Record, error) {
	var records []*Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}

	out := records[:0]
	for _, r := range records {
		if r == nil {
			continue
		}
		if strings.TrimSpace(r.ID) == "" {
			return nil, fmt.Errorf("vacancy %q has no id", r.Title)
		}
		r.WorkFormat = NormalizeWorkFormat(string(r.WorkFormat))
		out = append(out, r)
	}
	return out, nil
}
