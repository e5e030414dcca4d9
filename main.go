// Entrypoint that delegates handling to the Cobra root command in cmd/root.go

package main

import (
	"github.com/tiersim/blocksim/cmd"
)

func main() {
	cmd.Execute()
}
