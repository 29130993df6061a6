// Package jobfile reads print job lists from JSON or YAML files.
//
// Two layouts are accepted in either format:
//
//	[ {"id": "M1", "volume": 100, "priority": 2, "print_time": 120}, ... ]
//
//	{"constraints": {"max_volume": 300, "max_items": 2}, "jobs": [ ... ]}
package jobfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/ChuLiYu/print-batcher/pkg/types"
)

var (
	// ErrInvalidJob marks a job that cannot be scheduled by id.
	ErrInvalidJob = errors.New("jobfile: invalid job")
	// ErrUnsupportedFormat is returned for file extensions other than json/yaml/yml.
	ErrUnsupportedFormat = errors.New("jobfile: unsupported format")
)

// Format is the encoding of a job file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// File is the decoded content of a job file. Constraints only holds the
// limits the file sets.
type File struct {
	Constraints *types.ConstraintOverrides `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	Jobs        []types.Job                `json:"jobs" yaml:"jobs"`
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads, decodes and validates the job file at path.
func Load(path string) (*File, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}

	f, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse job file: %w", err)
	}

	if err := Validate(f.Jobs); err != nil {
		return nil, err
	}
	return f, nil
}

// Parse decodes data without validating the jobs.
func Parse(data []byte, format Format) (*File, error) {
	switch format {
	case FormatJSON:
		return parseJSON(data)
	case FormatYAML:
		return parseYAML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func parseJSON(data []byte) (*File, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var jobs []types.Job
		if err := json.Unmarshal(trimmed, &jobs); err != nil {
			return nil, err
		}
		return &File{Jobs: jobs}, nil
	}

	var f File
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func parseYAML(data []byte) (*File, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return &File{}, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.SequenceNode {
		var jobs []types.Job
		if err := root.Decode(&jobs); err != nil {
			return nil, err
		}
		return &File{Jobs: jobs}, nil
	}

	var f File
	if err := root.Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate reports every job with an empty or duplicated id.
func Validate(jobs []types.Job) error {
	var result *multierror.Error
	firstSeen := make(map[string]int, len(jobs))

	for i, job := range jobs {
		if strings.TrimSpace(job.ID) == "" {
			result = multierror.Append(result, fmt.Errorf("%w: job #%d has an empty id", ErrInvalidJob, i))
			continue
		}
		if prev, ok := firstSeen[job.ID]; ok {
			result = multierror.Append(result, fmt.Errorf("%w: duplicate id %q (jobs #%d and #%d)", ErrInvalidJob, job.ID, prev, i))
			continue
		}
		firstSeen[job.ID] = i
	}

	return result.ErrorOrNil()
}
