package main

import "github.com/safekit/safe-client-sdk-go/cmd/safe-cli/cmd"

func main() {
	cmd.Execute()
}
