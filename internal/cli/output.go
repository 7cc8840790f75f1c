package cli

import (
	"encoding/json"
	"fmt"
	"os"
)

// HealthResult is the /api/v1/health response
type HealthResult struct {
	Status string `json:"status"`
}

// ArenaResult is the /api/v1/arena response
type ArenaResult struct {
	Queue []struct {
		Name  string `json:"name"`
		Ready bool   `json:"ready"`
	} `json:"queue"`
	Connected int `json:"connected"`
}

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		fmt.Printf("Status: %s\n", v.Status)
	case ArenaResult:
		fmt.Printf("Connected players: %d\n", v.Connected)
		if len(v.Queue) == 0 {
			fmt.Println("Queue: empty")
			return
		}
		fmt.Println("Queue:")
		for _, entry := range v.Queue {
			marker := " "
			if entry.Ready {
				marker = "*"
			}
			fmt.Printf("  %s %s\n", marker, entry.Name)
		}
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}
