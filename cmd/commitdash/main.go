// Command commitdash is the terminal client of the commit dashboard.
package main

import "github.com/sakif/commit-dashboard/internal/cli"

func main() {
	cli.Execute()
}
