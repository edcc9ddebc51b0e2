// Command genkey prints a new API key and the API_KEY_HASH that accepts it.
//
//	genkey [live|test]
//	genkey hash <key>
package main

import (
	"fmt"
	"os"

	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
)

func main() {
	if len(os.Args) > 2 && os.Args[1] == "hash" {
		fmt.Printf("API_KEY_HASH=%s\n", domain.HashAPIKey(os.Args[2]))
		return
	}

	env := domain.EnvLive
	if len(os.Args) > 1 {
		env = os.Args[1]
	}

	key, hash, prefix, err := domain.GenerateAPIKey(env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	fmt.Printf("KEY=%s\nAPI_KEY_HASH=%s\nPREFIX=%s\n", key, hash, prefix)
}
