// Command a11yscan runs accessibility scans and serves the scan API.
package main

import "github.com/raysh454/a11yscan/internal/cli"

func main() {
	cli.Execute()
}
