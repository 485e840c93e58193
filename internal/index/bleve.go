package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

// maxRemoveBatch caps how many documents of one file RemoveFile looks at.
const maxRemoveBatch = 10000

// BleveIndex keeps symbols in a bleve index, in memory or on disk.
type BleveIndex struct {
	index bleve.Index
	path  string
}

// symbolDocument is the document stored per declaration.
type symbolDocument struct {
	Name   string  `json:"name"`
	Kind   string  `json:"kind"`
	Header string  `json:"header"`
	Path   string  `json:"path"`
	Line   float64 `json:"line"`
}

func buildSymbolMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	for _, field := range []string{"name", "kind", "header", "path"} {
		fm := bleve.NewKeywordFieldMapping()
		fm.Store = true
		fm.IncludeInAll = field == "name"
		docMapping.AddFieldMappingsAt(field, fm)
	}
	lineMapping := bleve.NewNumericFieldMapping()
	lineMapping.Store = true
	lineMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("line", lineMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// OpenBleveIndex opens the index at path, creating it if missing. An empty
// path selects a memory-only index.
func OpenBleveIndex(path string) (*BleveIndex, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(buildSymbolMapping())
		if err != nil {
			return nil, fmt.Errorf("creating bleve index: %w", err)
		}
		return &BleveIndex{index: idx}, nil
	}
	if _, err := os.Stat(path); err == nil {
		idx, err := bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening bleve index %s: %w", path, err)
		}
		return &BleveIndex{index: idx, path: path}, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	idx, err := bleve.New(path, buildSymbolMapping())
	if err != nil {
		return nil, fmt.Errorf("creating bleve index %s: %w", path, err)
	}
	return &BleveIndex{index: idx, path: path}, nil
}

// Path is the on-disk location, "" for memory-only indexes.
func (b *BleveIndex) Path() string { return b.path }

func documentID(s Symbol) string {
	return s.Path + ":" + strconv.FormatUint(uint64(s.Line), 10) + ":" + s.Name
}

// Add indexes syms in one batch.
func (b *BleveIndex) Add(syms ...Symbol) error {
	if len(syms) == 0 {
		return nil
	}
	batch := b.index.NewBatch()
	for _, s := range syms {
		doc := symbolDocument{Name: s.Name, Kind: s.Kind, Header: s.Header, Path: s.Path, Line: float64(s.Line)}
		if err := batch.Index(documentID(s), doc); err != nil {
			return fmt.Errorf("indexing symbol %s: %w", s.Name, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("indexing batch: %w", err)
	}
	return nil
}

// RemoveFile deletes every symbol found in path.
func (b *BleveIndex) RemoveFile(path string) error {
	q := bleve.NewTermQuery(path)
	q.SetField("path")
	req := bleve.NewSearchRequest(q)
	req.Size = maxRemoveBatch
	res, err := b.index.Search(req)
	if err != nil {
		return fmt.Errorf("searching index: %w", err)
	}
	batch := b.index.NewBatch()
	for _, hit := range res.Hits {
		batch.Delete(hit.ID)
	}
	return b.index.Batch(batch)
}

func (b *BleveIndex) FindProviders(ctx context.Context, name string, limit int) ([]Symbol, error) {
	if limit <= 0 {
		limit = 10
	}
	q := bleve.NewTermQuery(name)
	q.SetField("name")
	req := bleve.NewSearchRequest(query.Query(q))
	req.Size = limit
	req.Fields = []string{"name", "kind", "header", "path", "line"}
	req.SortBy([]string{"path", "line"})

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	out := make([]Symbol, 0, len(res.Hits))
	for _, hit := range res.Hits {
		s := Symbol{
			Name:   fieldString(hit.Fields, "name"),
			Kind:   fieldString(hit.Fields, "kind"),
			Header: fieldString(hit.Fields, "header"),
			Path:   fieldString(hit.Fields, "path"),
		}
		if line, ok := hit.Fields["line"].(float64); ok {
			s.Line = uint32(line)
		}
		out = append(out, s)
	}
	return out, nil
}

// Count is the number of indexed declarations.
func (b *BleveIndex) Count() (uint64, error) {
	return b.index.DocCount()
}

func (b *BleveIndex) Close() error {
	return b.index.Close()
}

func fieldString(fields map[string]interface{}, key string) string {
	if s, ok := fields[key].(string); ok {
		return s
	}
	return ""
}
