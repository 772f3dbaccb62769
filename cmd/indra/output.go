package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// printResult renders v as JSON or via asText depending on the global
// --format flag.
func printResult(v any, asText func(any) string) {
	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			fmt.Fprintln(os.Stderr, "error encoding output:", err)
		}
		return
	}
	fmt.Fprintln(os.Stdout, asText(v))
}
