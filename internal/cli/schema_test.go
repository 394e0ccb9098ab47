package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSchemaTestRoot() *cobra.Command {
	root := &cobra.Command{Use: "docq", Short: "root"}
	AddHelpJSONFlag(root)

	sub := &cobra.Command{Use: "ingest", Short: "ingest a document", Aliases: []string{"add"}}
	sub.Flags().StringP("title", "t", "", "document title")
	_ = sub.MarkFlagRequired("title")
	sub.Flags().String("file", "", "read content from a file")

	hidden := &cobra.Command{Use: "secret", Hidden: true}

	root.AddCommand(sub, hidden)
	return root
}

func TestGenerateSchema(t *testing.T) {
	root := newSchemaTestRoot()

	schema := GenerateSchema(root)

	assert.Equal(t, "docq", schema.Name)
	require.Len(t, schema.Subcommands, 1, "hidden commands stay out of the schema")
	sub := schema.Subcommands[0]
	assert.Equal(t, "ingest", sub.Name)

	byName := map[string]FlagSchema{}
	for _, f := range sub.Flags {
		byName[f.Name] = f
	}
	require.Contains(t, byName, "title")
	require.Contains(t, byName, "file")
	assert.NotContains(t, byName, "help")
	assert.NotContains(t, byName, "help-json")

	assert.True(t, byName["title"].Required)
	assert.Equal(t, "t", byName["title"].Shorthand)
	assert.False(t, byName["file"].Required)
}

func TestFindTargetCommand(t *testing.T) {
	root := newSchemaTestRoot()

	assert.Equal(t, "docq", findTargetCommand(root, nil).Name())
	assert.Equal(t, "ingest", findTargetCommand(root, []string{"ingest"}).Name())
	assert.Equal(t, "ingest", findTargetCommand(root, []string{"add"}).Name())
	assert.Equal(t, "docq", findTargetCommand(root, []string{"unknown"}).Name())
}
