package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/harrylevesque/desuite/internal/config"
	"github.com/harrylevesque/desuite/internal/crypto"
)

// TODO(genkey-rotate): add --rotate to keep the previous key for reading old cookies during rollover.

func main() {
	out := flag.String("out", config.DefaultKeyFile, "Where to write the hex session key")
	force := flag.Bool("force", false, "Overwrite an existing key file")
	flag.Parse()

	if _, err := os.Stat(*out); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Error: %s already exists. Refusing to overwrite.\n", *out)
		os.Exit(1)
	}
	key, err := crypto.GenerateKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating random key: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, []byte(hex.EncodeToString(key)+"\n"), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("Session key written to %s\n", *out)
	fmt.Printf("Or export it: %s=<contents of %s>\n", config.EnvSessionKey, *out)
}
