// Package settings loads vtg configuration from YAML with environment overrides.
package settings

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = "vtg.yaml"

// CommandTemplate maps a symbolic instruction token onto a local program
// and the fixed arguments placed before the instruction's own tokens.
type CommandTemplate struct {
	Program string   `yaml:"program"`
	Args    []string `yaml:"args,omitempty"`
}

// CaptureSettings controls per-test packet capture.
type CaptureSettings struct {
	Disabled bool   `yaml:"disabled,omitempty"`
	Dir      string `yaml:"dir"`
	// HostIP is the address the capture adapter must carry.
	HostIP string `yaml:"host_ip"`
	// MaxDuration is a hard ceiling on a capture; zero disables it.
	MaxDuration time.Duration `yaml:"max_duration"`
}

// DHCPSettings controls the embedded lease server.
type DHCPSettings struct {
	// Interface is the NIC the server binds to; empty binds all.
	Interface string `yaml:"interface,omitempty"`
}

// FactoryInitSettings parameterises the factory_init instruction.
type FactoryInitSettings struct {
	SKU   int    `yaml:"sku"`
	Image string `yaml:"image"`
}

// Settings holds the complete vtg configuration.
type Settings struct {
	InstructionFile string                     `yaml:"instruction_file"`
	Commands        map[string]CommandTemplate `yaml:"commands"`
	Capture         CaptureSettings            `yaml:"capture"`
	DHCP            DHCPSettings               `yaml:"dhcp"`
	FactoryInit     FactoryInitSettings        `yaml:"factory_init"`
}

// Default returns the configuration used when no file is present.
func Default() *Settings {
	return &Settings{
		InstructionFile: "validation_test_instructions.toml",
		Commands: map[string]CommandTemplate{
			"ccc":      {Program: "./ccc.exe"},
			"panorama": {Program: "./panorama_cli.exe", Args: []string{"run", "-t"}},
		},
		Capture: CaptureSettings{
			Dir:         "pcaps",
			HostIP:      "192.168.32.100",
			MaxDuration: 2 * time.Hour,
		},
		FactoryInit: FactoryInitSettings{
			SKU:   0,
			Image: "ultra.cepbin",
		},
	}
}

// Load reads settings from the default location
func Load() (*Settings, error) {
	return LoadFrom(DefaultPath)
}

// LoadFrom reads settings from a specific path, layering the file over
// Default and the environment over the file. A missing file is not an error.
func LoadFrom(path string) (*Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("settings: parsing %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("settings: reading %s: %w", path, err)
	}

	s.applyEnv()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) applyEnv() {
	if v := os.Getenv("VTG_INSTRUCTION_FILE"); v != "" {
		s.InstructionFile = v
	}
	if v := os.Getenv("VTG_CCC"); v != "" {
		t := s.Commands["ccc"]
		t.Program = v
		s.Commands["ccc"] = t
	}
	if v := os.Getenv("VTG_PANORAMA"); v != "" {
		t := s.Commands["panorama"]
		t.Program = v
		s.Commands["panorama"] = t
	}
	if v := os.Getenv("VTG_CAPTURE_DIR"); v != "" {
		s.Capture.Dir = v
	}
	if v := os.Getenv("VTG_HOST_IP"); v != "" {
		s.Capture.HostIP = v
	}
	if v := os.Getenv("VTG_DHCP_INTERFACE"); v != "" {
		s.DHCP.Interface = v
	}
}

// Validate checks required fields.
func (s *Settings) Validate() error {
	for name, t := range s.Commands {
		if t.Program == "" {
			return fmt.Errorf("settings: command %q has no program", name)
		}
	}
	if s.Capture.Dir == "" {
		return fmt.Errorf("settings: capture.dir is required")
	}
	if s.Capture.MaxDuration < 0 {
		return fmt.Errorf("settings: capture.max_duration must not be negative")
	}
	return nil
}

// SaveTo writes settings to a specific path
func (s *Settings) SaveTo(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
