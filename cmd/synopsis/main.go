package main

import (
	"errors"
	"os"

	"github.com/NASA-AMMOS/synopsis/cmd/synopsis/cmd"
	"github.com/NASA-AMMOS/synopsis/internal/types"
)

func main() {
	if err := cmd.Execute(); err != nil {
		// Exit codes mirror the engine status enum
		if errors.Is(err, types.ErrTimeout) {
			os.Exit(int(types.StatusTimeout))
		}
		os.Exit(int(types.StatusFailure))
	}
}
