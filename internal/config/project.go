// Package config loads the project configuration: where the service
// listens, where the database lives, and which ordered landmark name list
// the current project digitizes against.
package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cranial-data/landmark.report/internal/units"
)

// Defaults applied when a field is omitted from the config file.
const (
	DefaultListenAddr = ":8080"
	DefaultDBPath     = "landmark_data.db"
	DefaultUnits      = units.MM
)

// maxConfigFileSize caps config reads for safety (1MB).
const maxConfigFileSize = 1 * 1024 * 1024

// ProjectConfig is the root configuration. Fields are pointers so partial
// config files are safe: anything omitted keeps its default.
type ProjectConfig struct {
	// ListenAddr is the HTTP listen address for the service.
	ListenAddr *string `json:"listen_addr,omitempty"`
	// DBPath is the sqlite database file.
	DBPath *string `json:"db_path,omitempty"`
	// NamesFile points at the ordered landmark name list, one name per
	// line. Position in the file is the landmark's fiducial index.
	NamesFile *string `json:"names_file,omitempty"`
	// Units labels the coordinate units of digitized points ("mm").
	Units *string `json:"units,omitempty"`
	// DigitizerPort is the serial device of the point digitizer, empty to
	// run without one.
	DigitizerPort *string `json:"digitizer_port,omitempty"`
	// DigitizerBaud overrides the digitizer baud rate.
	DigitizerBaud *int `json:"digitizer_baud,omitempty"`
}

// Empty returns a ProjectConfig with all fields unset.
func Empty() *ProjectConfig {
	return &ProjectConfig{}
}

// Load reads a ProjectConfig from a JSON file. The file must have a .json
// extension and stay under the max file size; omitted fields retain their
// defaults, so partial configs are safe.
func Load(path string) (*ProjectConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks field values that have been set.
func (c *ProjectConfig) Validate() error {
	if c.ListenAddr != nil && *c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty when set")
	}
	if c.Units != nil && !units.IsValid(*c.Units) {
		return fmt.Errorf("unknown units %q (want %s)", *c.Units, units.GetValidUnitsString())
	}
	if c.DigitizerBaud != nil && *c.DigitizerBaud <= 0 {
		return fmt.Errorf("digitizer_baud must be positive, got %d", *c.DigitizerBaud)
	}
	return nil
}

// GetListenAddr returns the configured listen address or the default.
func (c *ProjectConfig) GetListenAddr() string {
	if c != nil && c.ListenAddr != nil {
		return *c.ListenAddr
	}
	return DefaultListenAddr
}

// GetDBPath returns the configured database path or the default.
func (c *ProjectConfig) GetDBPath() string {
	if c != nil && c.DBPath != nil {
		return *c.DBPath
	}
	return DefaultDBPath
}

// GetUnits returns the configured units or the default.
func (c *ProjectConfig) GetUnits() string {
	if c != nil && c.Units != nil {
		return *c.Units
	}
	return DefaultUnits
}

// GetNamesFile returns the configured names file path, empty when unset.
func (c *ProjectConfig) GetNamesFile() string {
	if c != nil && c.NamesFile != nil {
		return *c.NamesFile
	}
	return ""
}

// GetDigitizerPort returns the configured serial device, empty when unset.
func (c *ProjectConfig) GetDigitizerPort() string {
	if c != nil && c.DigitizerPort != nil {
		return *c.DigitizerPort
	}
	return ""
}

// GetDigitizerBaud returns the configured baud rate or 9600.
func (c *ProjectConfig) GetDigitizerBaud() int {
	if c != nil && c.DigitizerBaud != nil {
		return *c.DigitizerBaud
	}
	return 9600
}

// LoadNames reads an ordered landmark name list, one name per line. Blank
// lines are skipped; surrounding whitespace is trimmed. Order is
// significant: line position is the landmark's fiducial index.
func LoadNames(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open names file: %w", err)
	}
	defer f.Close()

	var names []string
	scan := bufio.NewScanner(f)
	for scan.Scan() {
		name := strings.TrimSpace(scan.Text())
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	if err := scan.Err(); err != nil {
		return nil, fmt.Errorf("failed to read names file: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("names file %s contains no landmark names", path)
	}
	return names, nil
}
