package main

import (
	"os"

	farmbuddycmder "github.com/papercomputeco/farmbuddy/cmd/farmbuddy"
)

func main() {
	cmd := farmbuddycmder.NewFarmBuddyCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
