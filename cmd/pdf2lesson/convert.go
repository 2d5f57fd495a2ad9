package main

import (
	"github.com/spf13/cobra"
	"github.com/thywilljoshua/pdf-to-lesson/internal/convert"
)

func convertCmd(a *app) *cobra.Command {
	var out, assets, catalogPath, publicAssets, lessonID string
	var provider, model string
	var pages int
	var noMerge bool

	cmd := &cobra.Command{
		Use:   "convert <pdf>",
		Short: "Extract, enrich and merge a PDF in one step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.enricher(cmd.Context(), provider, model)
			if err != nil {
				return err
			}
			conf := convert.Config{
				OutputDir:            pick(out, a.cfg.OutputDir),
				AssetDir:             pick(assets, a.cfg.AssetDir),
				PageLimit:            a.cfg.PageLimit,
				Enricher:             e,
				CatalogPath:          pick(catalogPath, a.cfg.Catalog.Path),
				PublicAssets:         pick(publicAssets, a.cfg.Catalog.PublicAssets),
				LessonID:             pick(lessonID, a.cfg.Catalog.LessonID),
				Unit:                 a.unit(),
				RealWorldApplication: a.cfg.Catalog.RealWorldApplication,
				Logger:               a.log,
			}
			if cmd.Flags().Changed("pages") {
				conf.PageLimit = &pages
			}
			if noMerge {
				conf.CatalogPath = ""
			}

			res, err := convert.Run(cmd.Context(), args[0], conf)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "directory for markdown and JSON output (default from config)")
	cmd.Flags().StringVar(&assets, "assets", "", "asset root for extracted images (default from config)")
	cmd.Flags().IntVar(&pages, "pages", 0, "process at most N pages (default: all)")
	cmd.Flags().StringVar(&provider, "ai", "", "AI provider: off|gemini|openai (default from config)")
	cmd.Flags().StringVar(&model, "model", "", "model name for the provider")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "lessons.json to update (default from config)")
	cmd.Flags().StringVar(&publicAssets, "public-assets", "", "UI asset root (default from config)")
	cmd.Flags().StringVar(&lessonID, "lesson-id", "", "catalog id (default lesson_<document>)")
	cmd.Flags().BoolVar(&noMerge, "no-merge", false, "stop after writing the enriched JSON")
	return cmd
}
