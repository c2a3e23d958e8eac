package main

import "github.com/deploymenttheory/go-sysup/cmd"

func main() {
	cmd.Execute()
}
