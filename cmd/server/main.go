// The server binary boots the Tradeyard API and blocks until signalled.
// Management commands (migrations, seeding, workers) live in cmd/tradeyard.
package main

import (
	"fmt"
	"os"

	"github.com/tradeyard/tradeyard/internal/server"

	// Register migrations so server.Start can run pending ones on boot.
	_ "github.com/tradeyard/tradeyard/database/migrations"
)

func main() {
	if err := server.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "tradeyard:", err)
		os.Exit(1)
	}
}
