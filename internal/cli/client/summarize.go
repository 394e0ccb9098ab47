package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Summary represents the summary API response.
type Summary struct {
	DocumentID string `json:"document_id"`
	Summary    string `json:"summary"`
}

// SummarizeCmd creates the summarize command.
func SummarizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize <document_id>",
		Short: "Summarize a document",
		Long:  "Generates a summary covering the document's full text.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSummarize(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runSummarize(cmd *cobra.Command, documentID string, outputJSON bool) error {
	api, err := NewAPIClient(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post(fmt.Sprintf("/documents/%s/summary", documentID), nil)
	if err != nil {
		return fmt.Errorf("failed to summarize document: %w", err)
	}

	var summary Summary
	if err := json.Unmarshal(resp.Data, &summary); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Println(summary.Summary)
	}

	return nil
}
