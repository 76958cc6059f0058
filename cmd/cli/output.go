package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// ErrorResponse is printed instead of a result when --json is set.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printError(cmd *cobra.Command, err error) {
	if jsonOutput {
		writeJSON(os.Stdout, ErrorResponse{Error: err.Error()})
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
}

// printList writes items one per line, or as a JSON object under key.
func printList(w io.Writer, key string, items []string, empty string) error {
	if jsonOutput {
		if items == nil {
			items = []string{}
		}
		return writeJSON(w, map[string][]string{key: items})
	}
	if len(items) == 0 {
		fmt.Fprintln(w, empty)
		return nil
	}
	for _, item := range items {
		fmt.Fprintf(w, "  %s\n", item)
	}
	return nil
}
