package batch

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/curator/internal/models"
)

// Item is one candidate record together with the name of its source. Text
// holds the source document when the file carries it, as evaluation
// datasets do.
type Item struct {
	Name   string        `json:"file_name"`
	Text   string        `json:"text,omitempty"`
	Record models.Record `json:"record"`
}

// Loader reads candidate records from a JSON, JSONL or Parquet file.
type Loader struct {
	path string
}

// NewLoader creates a new loader for path
func NewLoader(path string) *Loader {
	return &Loader{
		path: path,
	}
}

// Load reads every record in the file. A JSON file may hold a single record
// object or an array of them; a JSONL file holds one record per line.
func (l *Loader) Load() ([]Item, error) {
	return l.LoadSample(0)
}

// LoadSample reads at most limit records; a limit of zero reads them all.
func (l *Loader) LoadSample(limit int) ([]Item, error) {
	ext := strings.ToLower(filepath.Ext(l.path))

	var (
		items []Item
		err   error
	)
	switch ext {
	case ".parquet":
		items, err = l.loadParquet(limit)
	case ".jsonl", ".ndjson":
		items, err = l.loadJSONL(limit)
	case ".json":
		items, err = l.loadJSON()
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .json, .jsonl, .parquet)", ext)
	}
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (l *Loader) loadJSON() ([]Item, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch file: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var raws []json.RawMessage
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, fmt.Errorf("failed to parse JSON array: %w", err)
		}
		items := make([]Item, 0, len(raws))
		for i, raw := range raws {
			items = append(items, decodeItem(raw, l.fallbackName(i+1)))
		}
		return items, nil
	}

	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("failed to parse JSON file %s", l.path)
	}
	return []Item{decodeItem(trimmed, l.fallbackName(1))}, nil
}

func (l *Loader) loadJSONL(limit int) ([]Item, error) {
	slog.Debug("Opening JSONL file", "path", l.path)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch file: %w", err)
	}
	defer file.Close()

	var items []Item
	scanner := bufio.NewScanner(file)

	const maxCapacity = 10 * 1024 * 1024 // 10MB per line
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		if limit > 0 && len(items) >= limit {
			break
		}
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			return nil, fmt.Errorf("failed to parse JSON at line %d", lineNum)
		}
		items = append(items, decodeItem(line, l.fallbackName(lineNum)))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading batch file: %w", err)
	}

	slog.Debug("Finished reading JSONL file", "total_records", len(items), "total_lines", lineNum)
	return items, nil
}

func (l *Loader) fallbackName(n int) string {
	return filepath.Base(l.path) + "#" + strconv.Itoa(n)
}

// decodeItem decodes one record object. Shape errors degrade to the empty
// record so one bad entry does not abort the batch.
func decodeItem(raw []byte, fallback string) Item {
	item := Item{Name: fallback}

	var meta struct {
		FileName string `json:"file_name"`
		Text     string `json:"text"`
	}
	if err := json.Unmarshal(raw, &meta); err == nil {
		if meta.FileName != "" {
			item.Name = meta.FileName
		}
		item.Text = meta.Text
	}

	rec, err := models.DecodeRecord(raw)
	if err != nil {
		slog.Warn("Substituting empty record for malformed batch entry", "name", item.Name, "error", err)
	}
	item.Record = rec
	return item
}
