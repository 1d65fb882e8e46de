// Package main provides the entry point for the surplus CLI.
//
// surplus tracks surplus hardware awaiting disposal: a small web form records
// serial number, asset tag and device type, and the inventory can be searched,
// exported to CSV and snapshotted together with the application tree.
//
// Usage:
//
//	surplus serve
//	surplus export -o devices.csv
//	surplus backup
//
// See --help for all available options.
package main

// main is the entry point for surplus.
func main() {
	Execute()
}
