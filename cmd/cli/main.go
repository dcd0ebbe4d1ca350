// timecheck - Minimum Duration Checker
//
// timecheck reads a workbook of start and end times and reports the rows
// whose time difference is below the minimum duration.
package main

import (
	"os"

	"github.com/ccollicutt/timecheck/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
