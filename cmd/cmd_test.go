package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"serial-monitor/pkg/serial"
)

// TestRootCommand tests the root command wiring
func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "serial-monitor" {
		t.Errorf("rootCmd.Use = %s, want serial-monitor", rootCmd.Use)
	}
	if rootCmd.Short == "" {
		t.Error("rootCmd.Short should not be empty")
	}
	if rootCmd.Run == nil {
		t.Error("the root command itself should start the monitor")
	}

	subcommands := rootCmd.Commands()
	for _, expected := range []string{"list", "config"} {
		found := false
		for _, cmd := range subcommands {
			if cmd.Name() == expected {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected subcommand '%s' not found", expected)
		}
	}
}

// TestRootFlags tests defaults and presence of the startup flags
func TestRootFlags(t *testing.T) {
	tests := []struct {
		flag string
		want string
	}{
		{"port", ""},
		{"baud", "115200"},
		{"data", "8"},
		{"stop", "1"},
		{"parity", "none"},
		{"log", ""},
		{"hex", "false"},
		{"no-reopen-on-baud", "false"},
		{"transcript-format", "timestamped"},
	}

	for _, tt := range tests {
		f := rootCmd.Flags().Lookup(tt.flag)
		if f == nil {
			t.Errorf("flag --%s not registered", tt.flag)
			continue
		}
		if f.DefValue != tt.want {
			t.Errorf("flag --%s default = %s, want %s", tt.flag, f.DefValue, tt.want)
		}
	}

	if rootCmd.PersistentFlags().Lookup("verbose") == nil {
		t.Error("persistent flag --verbose not registered")
	}
}

// TestListCommand tests the list command configuration
func TestListCommand(t *testing.T) {
	if listCmd.Name() != "list" {
		t.Errorf("listCmd.Name() = %s, want list", listCmd.Name())
	}

	for _, alias := range []string{"ls", "ports"} {
		found := false
		for _, a := range listCmd.Aliases {
			if a == alias {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected list alias '%s' not found", alias)
		}
	}

	if f := listCmd.Flags().Lookup("format"); f == nil || f.DefValue != "table" {
		t.Error("list --format should default to table")
	}
	if listCmd.Flags().Lookup("details") == nil {
		t.Error("flag --details not registered on list")
	}
}

// TestConfigCommand tests the preset subcommand tree
func TestConfigCommand(t *testing.T) {
	output := &bytes.Buffer{}

	cmd := &cobra.Command{Use: "test"}
	cmd.AddCommand(configCmd)
	cmd.SetOut(output)
	cmd.SetErr(output)

	cmd.SetArgs([]string{"config", "--help"})
	if err := cmd.Execute(); err != nil {
		t.Errorf("config --help failed: %v", err)
	}

	out := output.String()
	for _, expected := range []string{"save", "list", "show", "delete"} {
		if !strings.Contains(out, expected) {
			t.Errorf("Expected config help to contain '%s', but it doesn't", expected)
		}
	}
}

// TestSavePresetRequiresPort tests that save refuses to run without --port
func TestSavePresetRequiresPort(t *testing.T) {
	output := &bytes.Buffer{}

	cmd := &cobra.Command{Use: "test"}
	cmd.AddCommand(configCmd)
	cmd.SetOut(output)
	cmd.SetErr(output)

	cmd.SetArgs([]string{"config", "save", "lab"})
	if err := cmd.Execute(); err == nil {
		t.Error("config save without --port should fail")
	}
}

// TestFlagValidation tests that flag combinations map onto config validation
func TestFlagValidation(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		shouldErr bool
	}{
		{
			name:      "valid settings",
			args:      []string{"--port", "/dev/ttyUSB0", "--baud", "115200"},
			shouldErr: false,
		},
		{
			name:      "unsupported baud rate",
			args:      []string{"--port", "/dev/ttyUSB0", "--baud", "12345"},
			shouldErr: true,
		},
		{
			name:      "invalid data bits",
			args:      []string{"--port", "/dev/ttyUSB0", "--data", "10"},
			shouldErr: true,
		},
		{
			name:      "invalid stop bits",
			args:      []string{"--port", "/dev/ttyUSB0", "--stop", "3"},
			shouldErr: true,
		},
		{
			name:      "invalid parity",
			args:      []string{"--port", "/dev/ttyUSB0", "--parity", "invalid"},
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{Use: "test"}

			var port, parity string
			var baud, data, stop int
			cmd.Flags().StringVar(&port, "port", "", "port")
			cmd.Flags().IntVar(&baud, "baud", 115200, "baud")
			cmd.Flags().IntVar(&data, "data", 8, "data")
			cmd.Flags().IntVar(&stop, "stop", 1, "stop")
			cmd.Flags().StringVar(&parity, "parity", "none", "parity")

			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("ParseFlags() error = %v", err)
			}

			cfg := serial.Config{
				Port:     port,
				BaudRate: baud,
				DataBits: data,
				StopBits: stop,
				Parity:   parity,
			}
			err := cfg.Validate()

			if tt.shouldErr && err == nil {
				t.Error("Expected validation error but got none")
			}
			if !tt.shouldErr && err != nil {
				t.Errorf("Expected no validation error but got: %v", err)
			}
		})
	}
}

// TestCommandStructure tests that all commands are properly described
func TestCommandStructure(t *testing.T) {
	commands := []*cobra.Command{
		rootCmd,
		listCmd,
		configCmd,
		savePresetCmd,
		listPresetCmd,
		showPresetCmd,
		deletePresetCmd,
	}

	for _, cmd := range commands {
		if cmd.Use == "" {
			t.Errorf("Command %v has empty Use field", cmd)
		}
		if cmd.Short == "" {
			t.Errorf("Command %s has empty Short description", cmd.Use)
		}
	}
}
