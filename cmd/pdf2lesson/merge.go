package main

import (
	"github.com/spf13/cobra"
	"github.com/thywilljoshua/pdf-to-lesson/internal/catalog"
)

func mergeCmd(a *app) *cobra.Command {
	var catalogPath, publicAssets, assets, lessonID string
	var noAssets bool

	cmd := &cobra.Command{
		Use:   "merge <name_enriched.json>",
		Short: "Add an enriched lesson to lessons.json and publish its images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := catalog.Options{
				CatalogPath:          pick(catalogPath, a.cfg.Catalog.Path),
				EnrichedPath:         args[0],
				LessonID:             pick(lessonID, a.cfg.Catalog.LessonID),
				AssetDir:             pick(assets, a.cfg.AssetDir),
				PublicAssets:         pick(publicAssets, a.cfg.Catalog.PublicAssets),
				Unit:                 a.unit(),
				RealWorldApplication: a.cfg.Catalog.RealWorldApplication,
				Logger:               a.log,
			}
			if noAssets {
				opts.PublicAssets = ""
			}
			sum, err := catalog.Merge(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return printJSON(cmd, sum)
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "lessons.json to update (default from config)")
	cmd.Flags().StringVar(&publicAssets, "public-assets", "", "UI asset root (default from config)")
	cmd.Flags().StringVar(&assets, "assets", "", "extraction asset root (default from config)")
	cmd.Flags().StringVar(&lessonID, "lesson-id", "", "catalog id (default lesson_<document>)")
	cmd.Flags().BoolVar(&noAssets, "no-assets", false, "do not copy images into the UI asset root")
	return cmd
}

func pick(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}
