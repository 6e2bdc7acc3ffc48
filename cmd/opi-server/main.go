// Command opi-server collects installer registrations and serves the global
// enabled flag.
package main

import "github.com/oshokin/owl-installer/cmd/opi-server/cmd"

func main() {
	cmd.Execute()
}
