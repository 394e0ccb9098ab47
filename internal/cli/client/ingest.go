package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// IngestRequest represents the ingest API request.
type IngestRequest struct {
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// IngestCmd creates the ingest command.
func IngestCmd() *cobra.Command {
	var (
		file  string
		title string
		meta  []string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a document from stdin or file",
		Long: `Ingest a text document so it can be queried and summarized.

Examples:
  # Ingest from a file
  docq ingest --file notes.txt --title "Meeting notes"

  # Ingest from stdin
  cat report.txt | docq ingest --title "Q3 report"

  # Attach metadata
  docq ingest --file spec.txt --title "Spec" --meta team=platform --meta version=2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runIngest(cmd, file, title, meta, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Input file (defaults to stdin)")
	cmd.Flags().StringVar(&title, "title", "", "Document title (required)")
	cmd.Flags().StringArrayVar(&meta, "meta", nil, "Metadata key=value pair (repeatable)")

	return cmd
}

func runIngest(cmd *cobra.Command, file, title string, meta []string, outputJSON bool) error {
	if title == "" {
		return fmt.Errorf("--title is required")
	}

	metadata := make(map[string]string)
	for _, pair := range meta {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid --meta entry %q (expected key=value)", pair)
		}
		metadata[key] = value
	}

	var input []byte
	var err error
	if file != "" {
		input, err = os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
	} else {
		input, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	if len(strings.TrimSpace(string(input))) == 0 {
		return fmt.Errorf("no content provided")
	}

	api, err := NewAPIClient(cmd)
	if err != nil {
		return err
	}

	req := IngestRequest{
		Title:    title,
		Content:  string(input),
		Metadata: metadata,
	}

	resp, err := api.Post("/documents", req)
	if err != nil {
		return fmt.Errorf("failed to ingest document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Ingested document: %s\n", doc.ID)
		fmt.Printf("Title: %s\n", doc.Title)
		fmt.Printf("Chunks: %d\n", doc.ChunkCount)
	}

	return nil
}
