package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/thywilljoshua/pdf-to-lesson/internal/ai"
	"github.com/thywilljoshua/pdf-to-lesson/internal/extract"
)

func enrichCmd(a *app) *cobra.Command {
	var provider, model string

	cmd := &cobra.Command{
		Use:   "enrich <name_extracted.md>",
		Short: "Structure extracted markdown into <name>_enriched.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			md := args[0]
			e, err := a.enricher(cmd.Context(), provider, model)
			if err != nil {
				return err
			}
			if e == nil {
				name := strings.TrimSuffix(extract.DocumentName(md), "_extracted")
				e = ai.Noop{Title: name}
			}
			a.log.Info("enriching", "markdown", md)
			out, lesson, err := ai.EnrichFile(cmd.Context(), e, md)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"enriched_path":  out,
				"title":          lesson.Title,
				"content_blocks": len(lesson.ContentBlocks),
			})
		},
	}
	cmd.Flags().StringVar(&provider, "ai", "", "AI provider: off|gemini|openai (default from config)")
	cmd.Flags().StringVar(&model, "model", "", "model name for the provider")
	return cmd
}
