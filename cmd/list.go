package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"serial-monitor/pkg/serial"
)

var (
	listDetails bool
	listFormat  string
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available serial ports",
	Long: `List all available serial ports on the system.

This command scans the system for available serial ports and displays
them in a formatted list. On different platforms:
  - Windows: Lists COM ports
  - Linux: Lists /dev/tty* devices
  - macOS: Lists /dev/cu.* and /dev/tty.* devices`,
	Aliases: []string{"ls", "ports"},
	Run:     runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listDetails, "details", "d", false, "show detailed port information")
	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table, csv, json)")
}

func runList(cmd *cobra.Command, args []string) {
	ports, err := serial.NewCatalog().Refresh()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing ports: %v\n", err)
		os.Exit(1)
	}

	if len(ports) == 0 {
		fmt.Println("No serial ports found.")
		return
	}

	switch listFormat {
	case "csv":
		printPortsCSV(ports)
	case "json":
		printPortsJSON(ports)
	default:
		printPortsTable(ports)
	}
}

func printPortsTable(ports []serial.PortInfo) {
	fmt.Printf("Found %d serial port(s):\n", len(ports))

	for _, port := range ports {
		fmt.Printf("  %s", port.Name)
		if listDetails && port.IsUSB {
			fmt.Printf(" [USB]")
			if port.VID != "" || port.PID != "" {
				fmt.Printf(" VID:%s PID:%s", port.VID, port.PID)
			}
			if port.Product != "" {
				fmt.Printf(" - %s", port.Product)
			}
			if port.SerialNumber != "" {
				fmt.Printf(" (SN: %s)", port.SerialNumber)
			}
		}
		fmt.Println()
	}

	fmt.Println("\nUse 'serial-monitor -p <port>' to open a port directly.")
}

func printPortsCSV(ports []serial.PortInfo) {
	if listDetails {
		fmt.Println("port,is_usb,vid,pid,product,serial_number")
		for _, port := range ports {
			fmt.Printf("%s,%t,%s,%s,%s,%s\n",
				port.Name, port.IsUSB, port.VID, port.PID,
				port.Product, port.SerialNumber)
		}
	} else {
		fmt.Println("port")
		for _, port := range ports {
			fmt.Printf("%s\n", port.Name)
		}
	}
}

func printPortsJSON(ports []serial.PortInfo) {
	var err error
	var data []byte
	if listDetails {
		data, err = json.MarshalIndent(ports, "", "  ")
	} else {
		names := make([]string, len(ports))
		for i, port := range ports {
			names[i] = port.Name
		}
		data, err = json.MarshalIndent(names, "", "  ")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding ports: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
