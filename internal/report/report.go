package report

// ============================================================================
// Responsibilities:
// 1. Serialize an optimized batch plan to a JSON report file
// 2. Write atomically (temp file + rename) so readers never see half a file
// 3. Check the schema version when loading
// ============================================================================

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ChuLiYu/print-batcher/pkg/types"
)

// SchemaVersion is the report layout written by this package.
const SchemaVersion = 1

var (
	ErrCorruptedReport     = errors.New("report file is corrupted")
	ErrIncompatibleVersion = errors.New("report schema version is incompatible")
	ErrReportNotFound      = errors.New("report file not found")
)

// Report is one optimized plan together with the inputs that produced it.
type Report struct {
	SchemaVer   int               `json:"schema_version"`
	GeneratedAt time.Time         `json:"generated_at"`
	Source      string            `json:"source,omitempty"` // job file the plan was built from
	Constraints types.Constraints `json:"constraints"`
	Result      types.Result      `json:"result"`
}

// Manager reads and writes a report at a fixed path.
type Manager struct {
	path string
	mu   sync.Mutex
}

// NewManager returns a Manager for path.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Write stores r atomically, stamping the schema version and, when unset,
// the generation time.
func (m *Manager) Write(r Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r.SchemaVer = SchemaVersion
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now().UTC()
	}

	jsonBytes, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	tmpPath := m.path + ".tmp"
	if err := os.WriteFile(tmpPath, jsonBytes, 0644); err != nil {
		return fmt.Errorf("failed to write temp report: %w", err)
	}

	if err := os.Rename(tmpPath, m.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename report: %w", err)
	}

	return nil
}

// Load reads the report and verifies its schema version.
func (m *Manager) Load() (Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var r Report

	jsonBytes, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, fmt.Errorf("%w: %s", ErrReportNotFound, m.path)
		}
		return r, fmt.Errorf("failed to read report: %w", err)
	}

	if err := json.Unmarshal(jsonBytes, &r); err != nil {
		return r, fmt.Errorf("%w: %v", ErrCorruptedReport, err)
	}

	if r.SchemaVer != SchemaVersion {
		return r, fmt.Errorf("%w: got %d, want %d", ErrIncompatibleVersion, r.SchemaVer, SchemaVersion)
	}

	if r.Result.PrintOrder == nil {
		r.Result.PrintOrder = []string{}
	}

	return r, nil
}

// Exists reports whether the report file is present.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}
