package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// JSONResponse is the standard response wrapper for JSON output
type JSONResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BumpOutput represents the JSON output of a version rewrite
type BumpOutput struct {
	File     string   `json:"file"`
	Version  string   `json:"version"`
	Major    int      `json:"major"`
	Minor    int      `json:"minor"`
	DateCode string   `json:"date_code"`
	Revision int      `json:"revision"`
	SameDay  bool     `json:"same_day"`
	Changed  bool     `json:"changed"`
	DryRun   bool     `json:"dry_run,omitempty"`
	Missing  []string `json:"missing_markers,omitempty"`
}

// ShowOutput represents the output of the show command
type ShowOutput struct {
	File     string `json:"file" yaml:"file"`
	Version  string `json:"version" yaml:"version"`
	Major    int    `json:"major" yaml:"major"`
	Minor    int    `json:"minor" yaml:"minor"`
	DateCode string `json:"date_code" yaml:"date_code"`
	Revision int    `json:"revision" yaml:"revision"`
	Date     string `json:"date,omitempty" yaml:"date,omitempty"`
	Today    bool   `json:"today" yaml:"today"`
}

// printJSON outputs data as formatted JSON to w
func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
	}
}

// printSuccess outputs a successful JSON response
func printSuccess(w io.Writer, data any) {
	printJSON(w, JSONResponse{Success: true, Data: data})
}

// printJSONError outputs an error as JSON
func printJSONError(w io.Writer, err error) {
	printJSON(w, JSONResponse{Success: false, Error: err.Error()})
}

// printYAML outputs data as YAML to w
func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}
