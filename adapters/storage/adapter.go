// Package storage loads engine inputs (knowledge base, item sequences) and
// persists verification reports. Supports file and in-memory backends.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"estimate-engine/core/types"
	"estimate-engine/core/verify"
	"estimate-engine/internal/errors"
)

// Backend is a storage backend type
type Backend string

const (
	BackendFile   Backend = "file"
	BackendMemory Backend = "memory"
)

// LoadKB reads a knowledge base from a JSON file: a flat array of entries,
// one historical price observation each.
func LoadKB(path string) ([]*types.KBEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeInput, err, "failed to read knowledge base %s", path)
	}

	var entries []*types.KBEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrapf(errors.TypeParsing, err, "failed to parse knowledge base %s", path)
	}

	return entries, nil
}

// LoadItems reads an ordered line-item sequence from a JSON file. The same
// format serves generated estimates and reference estimates.
func LoadItems(path string) ([]*types.LineItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeInput, err, "failed to read items %s", path)
	}

	var items []*types.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, errors.Wrapf(errors.TypeParsing, err, "failed to parse items %s", path)
	}

	return items, nil
}

// LoadMetrics reads an optional building-metrics object from a JSON file
func LoadMetrics(path string) (*types.BuildingMetrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeInput, err, "failed to read metrics %s", path)
	}

	var metrics types.BuildingMetrics
	if err := json.Unmarshal(data, &metrics); err != nil {
		return nil, errors.Wrapf(errors.TypeParsing, err, "failed to parse metrics %s", path)
	}

	return &metrics, nil
}

// SaveItems writes an item sequence back out as indented JSON
func SaveItems(path string, items []*types.LineItem) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return errors.Wrap(errors.TypeInternal, "failed to marshal items", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(errors.TypeInput, err, "failed to write items %s", path)
	}
	return nil
}

// StoredReport is a persisted verification run
type StoredReport struct {
	// ID is the unique identifier; defaults to the report's own ID
	ID string `json:"id"`

	// ProjectID groups runs of the same project
	ProjectID string `json:"project_id"`

	// Report is the full verification output
	Report *verify.Report `json:"report"`

	// CreatedAt timestamp
	CreatedAt time.Time `json:"created_at"`

	// Metadata carries free-form run context
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ListFilter filters report listing
type ListFilter struct {
	ProjectID string
	Since     time.Time
	Until     time.Time
	Limit     int
	Offset    int
}

// Store persists verification reports
type Store interface {
	// Save stores a verification run
	Save(ctx context.Context, report *StoredReport) error

	// Get retrieves a run by ID
	Get(ctx context.Context, id string) (*StoredReport, error)

	// List lists runs matching the filter
	List(ctx context.Context, filter *ListFilter) ([]*StoredReport, error)

	// Delete removes a run
	Delete(ctx context.Context, id string) error

	// GetLatest gets the latest run for a project
	GetLatest(ctx context.Context, projectID string) (*StoredReport, error)

	// Close closes the store
	Close() error
}

// FileStore is a file-based storage backend, one JSON file per run grouped
// into per-project directories.
type FileStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStore creates a file store rooted at basePath
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

func (s *FileStore) Save(ctx context.Context, report *StoredReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if report.ID == "" {
		if report.Report != nil && report.Report.ID != "" {
			report.ID = report.Report.ID
		} else {
			report.ID = uuid.New().String()
		}
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now()
	}
	if report.ProjectID == "" {
		report.ProjectID = "default"
	}

	projectDir := filepath.Join(s.basePath, report.ProjectID)
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	filePath := filepath.Join(projectDir, report.ID+".json")
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*StoredReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		filePath := filepath.Join(s.basePath, entry.Name(), id+".json")
		data, err := os.ReadFile(filePath)
		if err == nil {
			var report StoredReport
			if err := json.Unmarshal(data, &report); err != nil {
				return nil, fmt.Errorf("failed to unmarshal report: %w", err)
			}
			return &report, nil
		}
	}

	return nil, errors.NotFound("report", id)
}

func (s *FileStore) List(ctx context.Context, filter *ListFilter) ([]*StoredReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var reports []*StoredReport

	err := filepath.Walk(s.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}

		var report StoredReport
		if err := json.Unmarshal(data, &report); err != nil {
			return nil
		}

		if filter != nil {
			if filter.ProjectID != "" && report.ProjectID != filter.ProjectID {
				return nil
			}
			if !filter.Since.IsZero() && report.CreatedAt.Before(filter.Since) {
				return nil
			}
			if !filter.Until.IsZero() && report.CreatedAt.After(filter.Until) {
				return nil
			}
		}

		reports = append(reports, &report)
		return nil
	})

	if err != nil {
		return nil, err
	}

	if filter != nil {
		if filter.Offset > 0 && filter.Offset < len(reports) {
			reports = reports[filter.Offset:]
		}
		if filter.Limit > 0 && filter.Limit < len(reports) {
			reports = reports[:filter.Limit]
		}
	}

	return reports, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return fmt.Errorf("failed to read storage: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		filePath := filepath.Join(s.basePath, entry.Name(), id+".json")
		if _, err := os.Stat(filePath); err == nil {
			return os.Remove(filePath)
		}
	}

	return errors.NotFound("report", id)
}

func (s *FileStore) GetLatest(ctx context.Context, projectID string) (*StoredReport, error) {
	reports, err := s.List(ctx, &ListFilter{ProjectID: projectID})
	if err != nil {
		return nil, err
	}

	var latest *StoredReport
	for _, report := range reports {
		if latest == nil || report.CreatedAt.After(latest.CreatedAt) {
			latest = report
		}
	}
	if latest == nil {
		return nil, errors.NotFound("project reports", projectID)
	}
	return latest, nil
}

func (s *FileStore) Close() error {
	return nil
}

// MemoryStore is an in-memory storage backend (for testing)
type MemoryStore struct {
	reports map[string]*StoredReport
	mu      sync.RWMutex
}

// NewMemoryStore creates a memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[string]*StoredReport)}
}

func (s *MemoryStore) Save(ctx context.Context, report *StoredReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if report.ID == "" {
		if report.Report != nil && report.Report.ID != "" {
			report.ID = report.Report.ID
		} else {
			report.ID = uuid.New().String()
		}
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now()
	}

	s.reports[report.ID] = report
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*StoredReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[id]
	if !ok {
		return nil, errors.NotFound("report", id)
	}
	return report, nil
}

func (s *MemoryStore) List(ctx context.Context, filter *ListFilter) ([]*StoredReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var reports []*StoredReport
	for _, report := range s.reports {
		if filter != nil && filter.ProjectID != "" && report.ProjectID != filter.ProjectID {
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.reports, id)
	return nil
}

func (s *MemoryStore) GetLatest(ctx context.Context, projectID string) (*StoredReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *StoredReport
	for _, report := range s.reports {
		if report.ProjectID == projectID {
			if latest == nil || report.CreatedAt.After(latest.CreatedAt) {
				latest = report
			}
		}
	}

	if latest == nil {
		return nil, errors.NotFound("project reports", projectID)
	}
	return latest, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// StoreFactory creates stores by backend type
func StoreFactory(backend Backend, config map[string]string) (Store, error) {
	switch backend {
	case BackendFile:
		path := config["path"]
		if path == "" {
			path = ".estimate-engine"
		}
		return NewFileStore(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}

// Ensure interfaces are implemented
var _ io.Closer = (*FileStore)(nil)
var _ io.Closer = (*MemoryStore)(nil)
