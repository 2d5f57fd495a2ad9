package main

import (
	"github.com/spf13/cobra"
	"github.com/thywilljoshua/pdf-to-lesson/internal/catalog"
	"github.com/thywilljoshua/pdf-to-lesson/internal/store"
)

func exportCmd(a *app) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "export [lessons.json]",
		Short: "Load the lessons catalog into a SQLite database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := a.cfg.Catalog.Path
			if len(args) == 1 {
				src = args[0]
			}
			entries, err := catalog.Load(src)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				a.log.Warn("catalog is empty", "path", src)
			}

			db, err := store.Open(pick(dbPath, a.cfg.Export.DBPath))
			if err != nil {
				return err
			}
			defer db.Close()

			course := store.DefaultCourse
			e := a.cfg.Export
			course.ID = pick(e.CourseID, course.ID)
			course.Title = pick(e.CourseTitle, course.Title)
			course.Description = pick(e.CourseDescription, course.Description)
			course.ThumbnailURL = pick(e.ThumbnailURL, course.ThumbnailURL)

			stats, err := store.Export(cmd.Context(), db, course, entries, a.log)
			if err != nil {
				return err
			}
			return printJSON(cmd, stats)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database file (default from config)")
	return cmd
}
