package main

import (
	"github.com/spf13/cobra"
	"github.com/thywilljoshua/pdf-to-lesson/internal/extract"
)

func extractCmd(a *app) *cobra.Command {
	var out, assets string
	var pages int
	var verify bool

	cmd := &cobra.Command{
		Use:   "extract <pdf>",
		Short: "Write <name>_extracted.md and the page images of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = a.cfg.OutputDir
			}
			if assets == "" {
				assets = a.cfg.AssetDir
			}
			ex, err := extract.New(out, assets, extract.WithLogger(a.log))
			if err != nil {
				return err
			}
			var opts []extract.ExtractOption
			switch {
			case cmd.Flags().Changed("pages"):
				opts = append(opts, extract.WithPageLimit(pages))
			case a.cfg.PageLimit != nil:
				opts = append(opts, extract.WithPageLimit(*a.cfg.PageLimit))
			}
			res, err := ex.Extract(cmd.Context(), args[0], opts...)
			if err != nil {
				return err
			}
			if verify {
				if err := extract.VerifyMarkdown(res.OutputPath, assets); err != nil {
					return err
				}
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "directory for the markdown output (default from config)")
	cmd.Flags().StringVar(&assets, "assets", "", "asset root for extracted images (default from config)")
	cmd.Flags().IntVar(&pages, "pages", 0, "process at most N pages (default: all)")
	cmd.Flags().BoolVar(&verify, "verify", true, "check that every image link resolves after extraction")
	return cmd
}
