package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// AskRequest represents the ask API request.
type AskRequest struct {
	Question   string `json:"question"`
	DocumentID string `json:"document_id"`
}

// SourceRef identifies one chunk that grounded an answer.
type SourceRef struct {
	DocumentID   string `json:"document_id"`
	ChunkOrdinal int    `json:"chunk_ordinal"`
}

// Answer represents the ask API response.
type Answer struct {
	Question   string      `json:"question"`
	Answer     string      `json:"answer"`
	Confidence float64     `json:"confidence"`
	Sources    []SourceRef `json:"sources"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var documentID string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about a document",
		Long: `Asks a question and receives an answer grounded in the document's content.

Examples:
  docq ask "What were the action items?" --document 4f1c...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAsk(cmd, args[0], documentID, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&documentID, "document", "d", "", "Document ID to query (required)")

	return cmd
}

func runAsk(cmd *cobra.Command, question, documentID string, outputJSON bool) error {
	if documentID == "" {
		return fmt.Errorf("--document is required")
	}

	api, err := NewAPIClient(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/ask", AskRequest{Question: question, DocumentID: documentID})
	if err != nil {
		return fmt.Errorf("failed to ask question: %w", err)
	}

	var answer Answer
	if err := json.Unmarshal(resp.Data, &answer); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(answer, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(answer.Answer)
	fmt.Println()
	fmt.Printf("Confidence: %.2f\n", answer.Confidence)
	for _, s := range answer.Sources {
		fmt.Printf("Source: chunk %d of %s\n", s.ChunkOrdinal, s.DocumentID)
	}

	return nil
}
