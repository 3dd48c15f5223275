package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/forage/config"
)

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir             string
	generationsFile *os.File
	componentsFile  *os.File

	// Track if headers have been written
	generationsHeaderWritten bool
	componentsHeaderWritten  bool
}

// NewOutputManager creates a new output manager and initializes the output
// directory. Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "generations.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating generations.csv: %w", err)
	}
	om.generationsFile = f

	f, err = os.Create(filepath.Join(dir, "components.csv"))
	if err != nil {
		om.generationsFile.Close()
		return nil, fmt.Errorf("creating components.csv: %w", err)
	}
	om.componentsFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteGeneration writes a generation stats record to generations.csv.
func (om *OutputManager) WriteGeneration(stats GenerationStats) error {
	if om == nil {
		return nil
	}

	records := []GenerationStats{stats}

	if !om.generationsHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, om.generationsFile); err != nil {
			return fmt.Errorf("writing generations: %w", err)
		}
		om.generationsHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.generationsFile); err != nil {
			return fmt.Errorf("writing generations: %w", err)
		}
	}

	return nil
}

// WriteComponents writes an elite component breakdown to components.csv.
func (om *OutputManager) WriteComponents(bd ComponentBreakdown) error {
	if om == nil {
		return nil
	}

	records := []ComponentBreakdown{bd}

	if !om.componentsHeaderWritten {
		if err := gocsv.Marshal(records, om.componentsFile); err != nil {
			return fmt.Errorf("writing components: %w", err)
		}
		om.componentsHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.componentsFile); err != nil {
			return fmt.Errorf("writing components: %w", err)
		}
	}

	return nil
}

// ArchivePath returns the archive persistence target inside the output
// directory, or the given fallback when output is disabled.
func (om *OutputManager) ArchivePath(fallback string) string {
	if om == nil {
		return fallback
	}
	return filepath.Join(om.dir, filepath.Base(fallback))
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error

	if om.generationsFile != nil {
		if err := om.generationsFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if om.componentsFile != nil {
		if err := om.componentsFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
