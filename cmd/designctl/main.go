package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	loadDotEnv(".env.local", ".env")

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadDotEnv loads the first readable env files. Variables already present in
// the environment win.
func loadDotEnv(paths ...string) {
	if os.Getenv("DESIGNCTL_DOTENV") == "off" {
		return
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			fmt.Fprintf(os.Stderr, "designctl: failed to load %s: %v\n", p, err)
		}
	}
}
