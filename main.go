package main

import "serial-monitor/cmd"

func main() {
	cmd.Execute()
}
