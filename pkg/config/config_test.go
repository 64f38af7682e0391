package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"serial-monitor/pkg/serial"
)

func testConfig(port string, baud int) serial.Config {
	cfg := serial.DefaultConfig()
	cfg.Port = port
	cfg.BaudRate = baud
	return cfg
}

func TestFileManager_SaveLoad(t *testing.T) {
	m := NewFileManager(t.TempDir())

	saved := testConfig("/dev/ttyUSB0", 9600)
	if err := m.Save("lab", saved); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := m.Load("lab")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != saved {
		t.Errorf("Load() = %+v, want %+v", got, saved)
	}
}

func TestFileManager_SaveValidation(t *testing.T) {
	m := NewFileManager(t.TempDir())

	if err := m.Save("", testConfig("/dev/ttyUSB0", 9600)); err == nil {
		t.Error("Save with empty name should fail")
	}
	if err := m.Save("bad", testConfig("/dev/ttyUSB0", -1)); err == nil {
		t.Error("Save with an invalid configuration should fail")
	}
}

func TestFileManager_LoadMissing(t *testing.T) {
	m := NewFileManager(t.TempDir())

	if _, err := m.Load("nope"); err == nil {
		t.Error("Load of a missing preset should fail")
	}
	if _, err := m.Load(""); err == nil {
		t.Error("Load with an empty name should fail")
	}
}

func TestFileManager_SavePreservesCreatedAt(t *testing.T) {
	m := NewFileManager(t.TempDir())

	if err := m.Save("lab", testConfig("/dev/ttyUSB0", 9600)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	first, err := m.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if err := m.Save("lab", testConfig("/dev/ttyUSB0", 115200)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	second, err := m.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if !second[0].CreatedAt.Equal(first[0].CreatedAt) {
		t.Errorf("CreatedAt changed on overwrite: %v -> %v",
			first[0].CreatedAt, second[0].CreatedAt)
	}
	if second[0].Config.BaudRate != 115200 {
		t.Errorf("overwrite kept the old config: %+v", second[0].Config)
	}
}

func TestFileManager_ListSorted(t *testing.T) {
	m := NewFileManager(t.TempDir())

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := m.Save(name, testConfig("/dev/ttyUSB0", 9600)); err != nil {
			t.Fatalf("Save(%q) error = %v", name, err)
		}
	}

	presets, err := m.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var names []string
	for _, p := range presets {
		names = append(names, p.Name)
	}
	want := "alpha,mid,zeta"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("List() order = %s, want %s", got, want)
	}
}

func TestFileManager_ListEmpty(t *testing.T) {
	m := NewFileManager(t.TempDir())

	presets, err := m.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(presets) != 0 {
		t.Errorf("List() on a fresh directory = %d presets, want 0", len(presets))
	}
}

func TestFileManager_Delete(t *testing.T) {
	m := NewFileManager(t.TempDir())

	if err := m.Save("lab", testConfig("/dev/ttyUSB0", 9600)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !m.Exists("lab") {
		t.Fatal("Exists() = false after Save")
	}

	if err := m.Delete("lab"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if m.Exists("lab") {
		t.Error("Exists() = true after Delete")
	}
	if err := m.Delete("lab"); err == nil {
		t.Error("Delete of a missing preset should fail")
	}
}

func TestFileManager_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	m := NewFileManager(dir)

	if err := os.WriteFile(m.Path(), []byte("{not json"), 0644); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	if _, err := m.List(); err == nil {
		t.Error("List() on a corrupt file should fail")
	}
	if m.Exists("lab") {
		t.Error("Exists() on a corrupt file should report false")
	}
}

func TestPreset_Validate(t *testing.T) {
	valid := Preset{Name: "lab", Config: testConfig("/dev/ttyUSB0", 9600)}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() error = %v for a valid preset", err)
	}

	unnamed := Preset{Config: testConfig("/dev/ttyUSB0", 9600)}
	if err := unnamed.Validate(); err == nil {
		t.Error("Validate() should fail for an unnamed preset")
	}

	invalid := Preset{Name: "lab", Config: testConfig("/dev/ttyUSB0", 0)}
	if err := invalid.Validate(); err == nil {
		t.Error("Validate() should fail for an invalid configuration")
	}
}
