package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const dirPerm = 0o755

// FileStore implements Store on a flat directory of JSON files. Writes go
// through a temp file in the same directory followed by a rename, so readers
// never observe a partial snapshot.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store with configuration options.
func NewFileStore(opts ...Option) *FileStore {
	s := &FileStore{
		dir: "./data",
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func predictionsFile(source, date string) string {
	return fmt.Sprintf("predictions_%s_%s.json", source, date)
}

func resultsFile(date string) string {
	return "results_" + date + ".json"
}

func scoresFile(date string) string {
	return "scores_" + date + ".json"
}

// WritePredictions persists one source's predictions snapshot.
func (s *FileStore) WritePredictions(ctx context.Context, doc PredictionsDoc) error {
	if doc.Date == "" || doc.SourceID == "" {
		return fmt.Errorf("%w: predictions snapshot needs date and source_id", ErrInvalidSnapshot)
	}
	return s.writeJSON(predictionsFile(doc.SourceID, doc.Date), doc)
}

// ReadPredictions loads one source's predictions snapshot.
func (s *FileStore) ReadPredictions(ctx context.Context, source, date string) (PredictionsDoc, error) {
	var doc PredictionsDoc
	if err := s.readJSON(predictionsFile(source, date), &doc); err != nil {
		return PredictionsDoc{}, err
	}
	return doc, nil
}

// WriteResults persists the results snapshot.
func (s *FileStore) WriteResults(ctx context.Context, doc ResultsDoc) error {
	if doc.Date == "" {
		return fmt.Errorf("%w: results snapshot needs a date", ErrInvalidSnapshot)
	}
	return s.writeJSON(resultsFile(doc.Date), doc)
}

// ReadResults loads the results snapshot for a date.
func (s *FileStore) ReadResults(ctx context.Context, date string) (ResultsDoc, error) {
	var doc ResultsDoc
	if err := s.readJSON(resultsFile(date), &doc); err != nil {
		return ResultsDoc{}, err
	}
	return doc, nil
}

// WriteScores persists the scores snapshot.
func (s *FileStore) WriteScores(ctx context.Context, doc ScoresDoc) error {
	if doc.Date == "" {
		return fmt.Errorf("%w: scores snapshot needs a date", ErrInvalidSnapshot)
	}
	return s.writeJSON(scoresFile(doc.Date), doc)
}

// ReadScores loads the scores snapshot for a date.
func (s *FileStore) ReadScores(ctx context.Context, date string) (ScoresDoc, error) {
	var doc ScoresDoc
	if err := s.readJSON(scoresFile(date), &doc); err != nil {
		return ScoresDoc{}, err
	}
	return doc, nil
}

// writeJSON marshals v and atomically replaces the named file.
func (s *FileStore) writeJSON(name string, v any) error {
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", name, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write snapshot %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close snapshot temp file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace snapshot %s: %w", name, err)
	}
	return nil
}

// readJSON loads the named file into v, mapping missing files to
// ErrNotFound.
func (s *FileStore) readJSON(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("read snapshot %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", name, err)
	}
	return nil
}
