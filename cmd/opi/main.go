// Command opi prepares a Python project: it creates the environment and
// installs requirements.txt one package at a time.
package main

import "github.com/oshokin/owl-installer/cmd/opi/cmd"

func main() {
	cmd.Execute()
}
