package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS courses (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	description   TEXT,
	thumbnail_url TEXT
);
CREATE TABLE IF NOT EXISTS lessons (
	id            TEXT PRIMARY KEY,
	course_id     TEXT NOT NULL REFERENCES courses(id),
	lesson_number INTEGER NOT NULL,
	title         TEXT NOT NULL,
	unit_title    TEXT,
	video_id      TEXT,
	is_published  INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS content_blocks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	lesson_id   TEXT NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
	order_index INTEGER NOT NULL,
	type        TEXT NOT NULL,
	content     TEXT NOT NULL,
	meta_data   TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_content_blocks_lesson ON content_blocks(lesson_id, order_index);
`

// Open opens the SQLite database at path and makes sure the schema exists.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=10000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if err := Init(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func Init(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

type Stats struct {
	Course  string `json:"course"`
	Lessons int    `json:"lessons"`
	Blocks  int    `json:"blocks"`
}

// Export upserts the course and every catalog lesson and replaces each
// lesson's blocks. Everything happens in one transaction.
func Export(ctx context.Context, db *sql.DB, course Course, entries []json.RawMessage, log *slog.Logger) (Stats, error) {
	if log == nil {
		log = slog.Default()
	}
	lessons, blocks, err := MapCatalog(course.ID, entries)
	if err != nil {
		return Stats{}, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO courses (id, title, description, thumbnail_url) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, description = excluded.description, thumbnail_url = excluded.thumbnail_url`,
		course.ID, course.Title, course.Description, course.ThumbnailURL); err != nil {
		return Stats{}, fmt.Errorf("upsert course %s: %w", course.ID, err)
	}

	stats := Stats{Course: course.ID}
	for _, l := range lessons {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO lessons (id, course_id, lesson_number, title, unit_title, video_id, is_published) VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET course_id = excluded.course_id, lesson_number = excluded.lesson_number,
				title = excluded.title, unit_title = excluded.unit_title, video_id = excluded.video_id, is_published = excluded.is_published`,
			l.ID, l.CourseID, l.LessonNumber, l.Title, l.UnitTitle, nullString(l.VideoID), l.Published); err != nil {
			return Stats{}, fmt.Errorf("upsert lesson %s: %w", l.ID, err)
		}
		n, err := replaceBlocks(ctx, tx, l.ID, blocks[l.ID])
		if err != nil {
			return Stats{}, err
		}
		log.Debug("exported lesson", "id", l.ID, "title", l.Title, "blocks", n)
		stats.Lessons++
		stats.Blocks += n
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	log.Info("export complete", "course", course.ID, "lessons", stats.Lessons, "blocks", stats.Blocks)
	return stats, nil
}

func replaceBlocks(ctx context.Context, tx *sql.Tx, lessonID string, blocks []Block) (int, error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM content_blocks WHERE lesson_id = ?`, lessonID); err != nil {
		return 0, fmt.Errorf("clear blocks of %s: %w", lessonID, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO content_blocks (lesson_id, order_index, type, content, meta_data) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for _, b := range blocks {
		meta, err := json.Marshal(b.Meta)
		if err != nil {
			return 0, fmt.Errorf("block %d of %s: %w", b.OrderIndex, lessonID, err)
		}
		if _, err := stmt.ExecContext(ctx, b.LessonID, b.OrderIndex, b.Type, b.Content, string(meta)); err != nil {
			return 0, fmt.Errorf("insert block %d of %s: %w", b.OrderIndex, lessonID, err)
		}
	}
	return len(blocks), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
