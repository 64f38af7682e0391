package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"serial-monitor/pkg/config"
	"serial-monitor/pkg/serial"
)

var (
	// Config command flags
	presetPort     string
	presetBaudRate int
	presetDataBits int
	presetStopBits int
	presetParity   string
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage saved connection presets",
	Long: `Manage saved connection presets.

This command allows you to save, list, show and delete connection
presets for quick access to frequently used port settings.`,
}

// savePresetCmd saves a preset
var savePresetCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save a connection preset",
	Long: `Save a connection preset with a given name.

Example:
  serial-monitor config save mydevice -p /dev/ttyUSB0 -b 115200`,
	Args: cobra.ExactArgs(1),
	Run:  runSavePreset,
}

// listPresetCmd lists all presets
var listPresetCmd = &cobra.Command{
	Use:   "list",
	Short: "List all saved presets",
	Run:   runListPresets,
}

// showPresetCmd shows details of a preset
var showPresetCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show details of a saved preset",
	Args:  cobra.ExactArgs(1),
	Run:   runShowPreset,
}

// deletePresetCmd deletes a preset
var deletePresetCmd = &cobra.Command{
	Use:     "delete <name>",
	Short:   "Delete a saved preset",
	Aliases: []string{"rm", "remove"},
	Args:    cobra.ExactArgs(1),
	Run:     runDeletePreset,
}

func init() {
	configCmd.AddCommand(savePresetCmd)
	configCmd.AddCommand(listPresetCmd)
	configCmd.AddCommand(showPresetCmd)
	configCmd.AddCommand(deletePresetCmd)

	savePresetCmd.Flags().StringVarP(&presetPort, "port", "p", "", "serial port")
	savePresetCmd.Flags().IntVarP(&presetBaudRate, "baud", "b", 115200, "baud rate")
	savePresetCmd.Flags().IntVarP(&presetDataBits, "data", "d", 8, "data bits")
	savePresetCmd.Flags().IntVarP(&presetStopBits, "stop", "s", 1, "stop bits")
	savePresetCmd.Flags().StringVar(&presetParity, "parity", "none", "parity")
	savePresetCmd.MarkFlagRequired("port")
}

func runSavePreset(cmd *cobra.Command, args []string) {
	name := args[0]

	cfg := serial.Config{
		Port:     presetPort,
		BaudRate: presetBaudRate,
		DataBits: presetDataBits,
		StopBits: presetStopBits,
		Parity:   presetParity,
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	manager := config.NewFileManager("")
	if err := manager.Save(name, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving preset: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Preset '%s' saved (%s at %d baud).\n", name, cfg.Port, cfg.BaudRate)
}

func runListPresets(cmd *cobra.Command, args []string) {
	manager := config.NewFileManager("")
	presets, err := manager.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing presets: %v\n", err)
		os.Exit(1)
	}

	if len(presets) == 0 {
		fmt.Println("No saved presets.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPORT\tBAUD\tLAST USED")
	for _, p := range presets {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			p.Name, p.Config.Port, p.Config.BaudRate,
			p.LastUsedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
}

func runShowPreset(cmd *cobra.Command, args []string) {
	name := args[0]

	manager := config.NewFileManager("")
	cfg, err := manager.Load(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Preset: %s\n", name)
	fmt.Printf("  Port: %s\n", cfg.Port)
	fmt.Printf("  Settings: %d %d-%s-%d\n",
		cfg.BaudRate, cfg.DataBits, string(cfg.Parity[0]), cfg.StopBits)
}

func runDeletePreset(cmd *cobra.Command, args []string) {
	name := args[0]

	manager := config.NewFileManager("")
	if err := manager.Delete(name); err != nil {
		fmt.Fprintf(os.Stderr, "Error deleting preset: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Preset '%s' deleted.\n", name)
}
