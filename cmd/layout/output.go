package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"

	sentryFlushTimeout = 2 * time.Second
)

func validateOutput(output string) error {
	switch output {
	case outputJSON, outputYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q, expected %s or %s", output, outputJSON, outputYAML)
}

// printResult writes v to the command's output in the requested format
func printResult(cmd *cobra.Command, output string, v any) error {
	w := cmd.OutOrStdout()

	if output == outputYAML {
		b, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readInput reads a file, or the command's input when path is "-"
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// unmarshalInput parses JSON or YAML
func unmarshalInput(b []byte, v any) error {
	if json.Valid(b) {
		return json.Unmarshal(b, v)
	}
	return yaml.Unmarshal(b, v)
}
