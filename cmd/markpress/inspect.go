package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/CageChen/markpress/internal/content"
	"github.com/CageChen/markpress/internal/markdown"
)

var headingsCmd = &cobra.Command{
	Use:   "headings <file|->",
	Short: "Print the headings and ids of a Markdown file as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, body, err := readMarkdown(cmd, args[0])
		if err != nil {
			return err
		}
		headings := markdown.ExtractHeadings(body)
		if headings == nil {
			headings = []markdown.Heading{}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(headings)
	},
}

var renderCmd = &cobra.Command{
	Use:   "render <file|->",
	Short: "Render a Markdown file to an HTML fragment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		_, body, err := readMarkdown(cmd, args[0])
		if err != nil {
			return err
		}
		doc, err := newRenderer(cfg).Render(body)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), doc.HTML)
		return err
	},
}

func init() {
	rootCmd.AddCommand(headingsCmd, renderCmd)
}

// readMarkdown reads a file, or stdin for "-", and splits off front matter.
func readMarkdown(cmd *cobra.Command, name string) (content.Meta, []byte, error) {
	var data []byte
	var err error
	if name == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return content.Meta{}, nil, err
	}
	return content.ParseFrontMatter(data)
}
