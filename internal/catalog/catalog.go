package catalog

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/logger"
	"github.com/spigell/assessment-recommender/internal/metrics"
)

// ErrEmptyCatalog is returned when no valid row survives decoding and deduplication.
var ErrEmptyCatalog = errors.New("empty catalog")

const (
	ColumnName            = "name"
	ColumnURL             = "url"
	ColumnDescription     = "description"
	ColumnDuration        = "duration"
	ColumnTestType        = "test_type"
	ColumnRemoteSupport   = "remote_support"
	ColumnAdaptiveSupport = "adaptive_support"
	ColumnEmbedding       = "embedding"

	notAvailable = "N/A"
)

var (
	requiredColumns = []string{ColumnName, ColumnURL, ColumnEmbedding}
	leadingNumber   = regexp.MustCompile(`^\s*(\d+)`)
)

// Entry is one assessment product. Entries are shared read-only between
// requests and must not be modified after load.
type Entry struct {
	// URL is the catalog detail page and the unique key of the entry.
	URL             string
	Name            string
	Description     string
	TestTypes       []string
	RemoteSupport   bool
	AdaptiveSupport bool
	// Duration in minutes as recorded when the catalog was built, 0 when unknown.
	Duration  int
	Embedding []float64
}

// Catalog is an immutable snapshot of valid catalog entries in load order.
type Catalog struct {
	Entries    []Entry
	Source     string
	LoadedAt   time.Time
	Invalid    int
	Duplicates int
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Entries)
}

// Vectors returns the embeddings in entry order.
func (c *Catalog) Vectors() [][]float64 {
	vectors := make([][]float64, 0, c.Len())
	for i := range c.Entries {
		vectors = append(vectors, c.Entries[i].Embedding)
	}
	return vectors
}

// Source provides a catalog for one recommendation call.
type Source interface {
	Catalog(ctx context.Context) (*Catalog, error)
}

// File loads the catalog from disk on every call.
type File struct {
	Path   string
	Logger *zap.Logger
}

func (f File) Catalog(context.Context) (*Catalog, error) {
	return Load(f.Path, f.Logger)
}

// Load reads the catalog CSV at path.
func Load(path string, log *zap.Logger) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer file.Close()

	catalog, err := Read(file, log)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	catalog.Source = path

	return catalog, nil
}

// Read decodes catalog rows from r. Rows whose embedding cannot be decoded
// or is empty are dropped and logged. Rows repeating an earlier (name, url)
// pair are dropped as well; the first occurrence wins.
func Read(r io.Reader, log *zap.Logger) (*Catalog, error) {
	log = logger.OrNop(log)

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyCatalog
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := indexColumns(header)
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	catalog := &Catalog{LoadedAt: time.Now().UTC()}
	seen := make(map[string]struct{})

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}

		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		entry := Entry{
			URL:             cell(ColumnURL),
			Name:            cell(ColumnName),
			Description:     cell(ColumnDescription),
			TestTypes:       parseTestTypes(cell(ColumnTestType)),
			RemoteSupport:   parseFlag(cell(ColumnRemoteSupport)),
			AdaptiveSupport: parseFlag(cell(ColumnAdaptiveSupport)),
			Duration:        ParseMinutes(cell(ColumnDuration)),
		}

		embedding, err := decodeEmbedding(cell(ColumnEmbedding))
		if err != nil {
			log.Warn("skipping catalog row with invalid embedding",
				zap.Int("line", line),
				zap.String("name", entry.Name),
				zap.String(logger.FieldURL, entry.URL),
				zap.Error(err),
			)
			catalog.Invalid++
			metrics.CatalogRowsDropped.WithLabelValues("invalid_embedding").Inc()
			continue
		}
		entry.Embedding = embedding

		key := entry.Name + "\x00" + entry.URL
		if _, dup := seen[key]; dup {
			log.Debug("skipping duplicate catalog row",
				zap.Int("line", line),
				zap.String("name", entry.Name),
				zap.String(logger.FieldURL, entry.URL),
			)
			catalog.Duplicates++
			metrics.CatalogRowsDropped.WithLabelValues("duplicate").Inc()
			continue
		}
		seen[key] = struct{}{}

		catalog.Entries = append(catalog.Entries, entry)
	}

	if len(catalog.Entries) == 0 {
		return nil, ErrEmptyCatalog
	}

	metrics.CatalogEntries.Set(float64(len(catalog.Entries)))
	log.Info("catalog loaded",
		zap.Int("entries", len(catalog.Entries)),
		zap.Int("invalid", catalog.Invalid),
		zap.Int("duplicates", catalog.Duplicates),
	)

	return catalog, nil
}

func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for idx, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, exists := columns[name]; !exists {
			columns[name] = idx
		}
	}
	return columns
}

func decodeEmbedding(raw string) ([]float64, error) {
	if raw == "" {
		return nil, errors.New("embedding is missing")
	}

	var vector []float64
	if err := json.Unmarshal([]byte(raw), &vector); err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}

	if len(vector) == 0 {
		return nil, errors.New("embedding is empty")
	}

	return vector, nil
}

// ParseMinutes reads values like "45", "45 minutes" or "N/A". Unknown is 0.
func ParseMinutes(raw string) int {
	m := leadingNumber.FindStringSubmatch(raw)
	if m == nil {
		return 0
	}
	minutes, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return minutes
}

func parseFlag(raw string) bool {
	switch strings.ToLower(raw) {
	case "yes", "y", "true", "1":
		return true
	default:
		return false
	}
}

// parseTestTypes accepts a comma separated list or a JSON array of strings.
func parseTestTypes(raw string) []string {
	if raw == "" || strings.EqualFold(raw, notAvailable) {
		return []string{}
	}

	var items []string
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			items = nil
		}
	}
	if items == nil {
		items = strings.Split(raw, ",")
	}

	types := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || strings.EqualFold(item, notAvailable) {
			continue
		}
		types = append(types, item)
	}
	return types
}
