package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"serial-monitor/pkg/app"
	"serial-monitor/pkg/config"
	"serial-monitor/pkg/history"
)

var (
	// Root command flags
	verbose          bool
	monitorPort      string
	monitorPreset    string
	monitorBaud      int
	monitorDataBits  int
	monitorStopBits  int
	monitorParity    string
	monitorLog       string
	monitorHex       bool
	monitorMaxLines  int
	monitorNoReopen  bool
	transcriptPath   string
	transcriptFormat string
	debugPath        string

	// Root command
	rootCmd = &cobra.Command{
		Use:               "serial-monitor",
		Short:             "An interactive terminal for serial devices",
		Version:           "1.0.0",
		Run:               runMonitor,
		DisableAutoGenTag: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
)

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.Flags().StringVarP(&monitorPort, "port", "p", "", "serial port to open on startup")
	rootCmd.Flags().StringVar(&monitorPreset, "preset", "", "saved preset to load settings from")
	rootCmd.Flags().IntVarP(&monitorBaud, "baud", "b", 115200, "baud rate")
	rootCmd.Flags().IntVarP(&monitorDataBits, "data", "d", 8, "data bits (5, 6, 7, or 8)")
	rootCmd.Flags().IntVarP(&monitorStopBits, "stop", "s", 1, "stop bits (1 or 2)")
	rootCmd.Flags().StringVar(&monitorParity, "parity", "none", "parity (none, odd, even, mark, space)")
	rootCmd.Flags().StringVarP(&monitorLog, "log", "l", "", "log received bytes to this file")
	rootCmd.Flags().BoolVar(&monitorHex, "hex", false, "start with hex display mode")
	rootCmd.Flags().IntVar(&monitorMaxLines, "max-lines", 0, "output scrollback capacity in lines")
	rootCmd.Flags().BoolVar(&monitorNoReopen, "no-reopen-on-baud", false, "do not reopen an open port when cycling baud")
	rootCmd.Flags().StringVar(&transcriptPath, "save-transcript", "", "write the session transcript to this file on quit")
	rootCmd.Flags().StringVar(&transcriptFormat, "transcript-format", "timestamped", "transcript format (plain, timestamped, json)")
	rootCmd.Flags().StringVar(&debugPath, "debug", "", "write loop diagnostics to this file")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(configCmd)
}

// runMonitor builds the controller configuration from flags (or a saved
// preset) and enters the interactive session
func runMonitor(cmd *cobra.Command, args []string) {
	cfg := app.DefaultConfig()

	if monitorPreset != "" {
		manager := config.NewFileManager("")
		preset, err := manager.Load(monitorPreset)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading preset: %v\n", err)
			os.Exit(1)
		}
		cfg.Serial = preset
		if verbose {
			fmt.Printf("Loaded preset '%s' (port %s, baud %d)\n",
				monitorPreset, preset.Port, preset.BaudRate)
		}
	} else {
		cfg.Serial.Port = monitorPort
		cfg.Serial.BaudRate = monitorBaud
		cfg.Serial.DataBits = monitorDataBits
		cfg.Serial.StopBits = monitorStopBits
		cfg.Serial.Parity = monitorParity
	}

	if monitorLog != "" {
		cfg.LogPath = monitorLog
		cfg.LogEnabled = true
	}
	cfg.StartHex = monitorHex
	if monitorMaxLines > 0 {
		cfg.MaxLines = monitorMaxLines
	}
	cfg.ReopenOnBaud = !monitorNoReopen
	cfg.DebugPath = debugPath

	if transcriptPath != "" {
		format, err := history.ParseFormat(transcriptFormat)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg.TranscriptPath = transcriptPath
		cfg.TranscriptFormat = format
	}

	if err := app.Run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
