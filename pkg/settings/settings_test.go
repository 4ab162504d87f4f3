package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	s := Default()

	if s.InstructionFile != "validation_test_instructions.toml" {
		t.Errorf("InstructionFile = %q", s.InstructionFile)
	}
	if got := s.Commands["ccc"].Program; got != "./ccc.exe" {
		t.Errorf("ccc program = %q, want ./ccc.exe", got)
	}
	pano := s.Commands["panorama"]
	if pano.Program != "./panorama_cli.exe" || strings.Join(pano.Args, " ") != "run -t" {
		t.Errorf("panorama template = %+v", pano)
	}
	if s.Capture.Dir != "pcaps" || s.Capture.HostIP != "192.168.32.100" {
		t.Errorf("capture defaults = %+v", s.Capture)
	}
	if s.FactoryInit.Image != "ultra.cepbin" {
		t.Errorf("factory image = %q", s.FactoryInit.Image)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	s, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() non-existent should not error: %v", err)
	}
	if s.Capture.Dir != "pcaps" {
		t.Errorf("expected defaults, got %+v", s.Capture)
	}
}

func TestLoadFrom_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vtg.yaml")
	content := `
instruction_file: bench.toml
commands:
  ccc:
    program: /opt/sensor/ccc
capture:
  dir: /tmp/caps
  host_ip: 10.0.0.1
  max_duration: 30m
dhcp:
  interface: eth1
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if s.InstructionFile != "bench.toml" {
		t.Errorf("InstructionFile = %q", s.InstructionFile)
	}
	if s.Commands["ccc"].Program != "/opt/sensor/ccc" {
		t.Errorf("ccc program = %q", s.Commands["ccc"].Program)
	}
	if _, ok := s.Commands["panorama"]; !ok {
		t.Error("panorama default should survive a partial commands map")
	}
	if s.Capture.MaxDuration != 30*time.Minute {
		t.Errorf("MaxDuration = %s", s.Capture.MaxDuration)
	}
	if s.DHCP.Interface != "eth1" {
		t.Errorf("DHCP.Interface = %q", s.DHCP.Interface)
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	t.Setenv("VTG_CCC", "/usr/local/bin/ccc")
	t.Setenv("VTG_CAPTURE_DIR", "/var/caps")
	t.Setenv("VTG_DHCP_INTERFACE", "enp3s0")

	s, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if s.Commands["ccc"].Program != "/usr/local/bin/ccc" {
		t.Errorf("ccc program = %q", s.Commands["ccc"].Program)
	}
	if s.Capture.Dir != "/var/caps" {
		t.Errorf("Capture.Dir = %q", s.Capture.Dir)
	}
	if s.DHCP.Interface != "enp3s0" {
		t.Errorf("DHCP.Interface = %q", s.DHCP.Interface)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vtg.yaml")
	if err := os.WriteFile(path, []byte("capture: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	s := Default()
	s.Commands["broken"] = CommandTemplate{}
	if err := s.Validate(); err == nil {
		t.Error("empty program should fail validation")
	}

	s = Default()
	s.Capture.Dir = ""
	if err := s.Validate(); err == nil {
		t.Error("empty capture dir should fail validation")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vtg.yaml")
	orig := Default()
	orig.DHCP.Interface = "eth9"

	if err := orig.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.DHCP.Interface != "eth9" {
		t.Errorf("DHCP.Interface = %q, want eth9", loaded.DHCP.Interface)
	}
}
