package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// ListCmd creates the list command.
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your documents",
		Long:  "Lists metadata for all documents owned by the authenticated caller.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runList(cmd, outputJSON)
		},
	}

	return cmd
}

func runList(cmd *cobra.Command, outputJSON bool) error {
	api, err := NewAPIClient(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/documents")
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	var docs []Document
	if err := json.Unmarshal(resp.Data, &docs); err != nil {
		return fmt.Errorf("failed to parse documents: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(docs, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(docs) == 0 {
		fmt.Println("No documents found.")
		return nil
	}

	fmt.Printf("Found %d documents:\n\n", len(docs))
	for i, doc := range docs {
		fmt.Printf("%d. %s\n", i+1, doc.Title)
		fmt.Printf("   ID: %s\n", doc.ID)
		fmt.Printf("   Chunks: %d\n", doc.ChunkCount)
		if i < len(docs)-1 {
			fmt.Println()
		}
	}

	return nil
}
