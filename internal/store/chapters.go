package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ListChapterTitles returns the set of chapter titles persisted for a work.
func (s *Store) ListChapterTitles(ctx context.Context, workID uuid.UUID) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT title FROM chapters WHERE work_id = $1`, workID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapter titles: %w", err)
	}
	defer rows.Close()

	titles := make(map[string]struct{})
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan chapter title: %w", err)
		}
		titles[t] = struct{}{}
	}
	return titles, rows.Err()
}

// CreateChapter inserts a chapter with full content and order. A chapter is
// never partially written: either this insert lands the cleaned body and
// order together, or the row does not exist. Returns ErrChapterExists when
// the (work, title) constraint fires.
func (s *Store) CreateChapter(ctx context.Context, workID uuid.UUID, title, content string, order int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO chapters (work_id, title, content, ord) VALUES ($1, $2, $3, $4)`,
		workID, title, content, order,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrChapterExists
		}
		return fmt.Errorf("failed to create chapter %q: %w", title, err)
	}
	return nil
}

// CountChapters returns the number of chapters persisted for a work.
func (s *Store) CountChapters(ctx context.Context, workID uuid.UUID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM chapters WHERE work_id = $1`, workID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count chapters: %w", err)
	}
	return n, nil
}

// ListChapters returns chapter identity and order for a work, in reading
// order (order value, then title as tiebreak).
func (s *Store) ListChapters(ctx context.Context, workID uuid.UUID) ([]ChapterRef, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, ord FROM chapters WHERE work_id = $1 ORDER BY ord, title`, workID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	defer rows.Close()

	var refs []ChapterRef
	for rows.Next() {
		var r ChapterRef
		if err := rows.Scan(&r.ID, &r.Title, &r.Order); err != nil {
			return nil, fmt.Errorf("failed to scan chapter: %w", err)
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// UpdateChapterOrder sets a chapter's order value.
func (s *Store) UpdateChapterOrder(ctx context.Context, chapterID uuid.UUID, order int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE chapters SET ord = $1, updated_at = NOW() WHERE id = $2`,
		order, chapterID,
	)
	if err != nil {
		return fmt.Errorf("failed to update chapter order: %w", err)
	}
	return nil
}

// UpdateChapterTitle renames a chapter. The uniqueness constraint still
// applies; renaming onto an existing title returns ErrChapterExists.
func (s *Store) UpdateChapterTitle(ctx context.Context, chapterID uuid.UUID, title string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE chapters SET title = $1, updated_at = NOW() WHERE id = $2`,
		title, chapterID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrChapterExists
		}
		return fmt.Errorf("failed to update chapter title: %w", err)
	}
	return nil
}
