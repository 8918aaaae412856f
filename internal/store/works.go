package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// FindWork retrieves a work by exact title. Returns nil when absent.
func (s *Store) FindWork(ctx context.Context, title string) (*Work, error) {
	var w Work
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, author, category, intro, is_recommend, source_url, created_at, updated_at
		 FROM works WHERE title = $1`,
		title,
	).Scan(&w.ID, &w.Title, &w.Author, &w.Category, &w.Intro, &w.IsRecommend, &w.SourceURL, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find work %q: %w", title, err)
	}
	return &w, nil
}

// CreateWork inserts a new work.
func (s *Store) CreateWork(ctx context.Context, nw NewWork) (*Work, error) {
	var w Work
	err := s.pool.QueryRow(ctx,
		`INSERT INTO works (title, author, category, intro, source_url)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, title, author, category, intro, is_recommend, source_url, created_at, updated_at`,
		nw.Title, nw.Author, nw.Category, nw.Intro, nw.SourceURL,
	).Scan(&w.ID, &w.Title, &w.Author, &w.Category, &w.Intro, &w.IsRecommend, &w.SourceURL, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create work %q: %w", nw.Title, err)
	}
	return &w, nil
}

// EnsureWork finds a work by title or creates it, reporting which happened.
// A concurrent creation racing the lookup resolves to the existing row.
func (s *Store) EnsureWork(ctx context.Context, nw NewWork) (*Work, bool, error) {
	existing, err := s.FindWork(ctx, nw.Title)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	w, err := s.CreateWork(ctx, nw)
	if err != nil {
		if isUniqueViolation(err) {
			existing, ferr := s.FindWork(ctx, nw.Title)
			if ferr != nil {
				return nil, false, ferr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return w, true, nil
}

// WorkTitleExists reports whether a work with the exact title exists.
func (s *Store) WorkTitleExists(ctx context.Context, title string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM works WHERE title = $1)`, title,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check work title %q: %w", title, err)
	}
	return exists, nil
}

// UpdateWorkIntro sets the work's description and bumps its update time.
func (s *Store) UpdateWorkIntro(ctx context.Context, workID uuid.UUID, intro string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE works SET intro = $1, updated_at = NOW() WHERE id = $2`,
		intro, workID,
	)
	if err != nil {
		return fmt.Errorf("failed to update work intro: %w", err)
	}
	return nil
}

// ListWorks returns all works ordered by title.
func (s *Store) ListWorks(ctx context.Context) ([]Work, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, author, category, intro, is_recommend, source_url, created_at, updated_at
		 FROM works ORDER BY title`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list works: %w", err)
	}
	defer rows.Close()

	var works []Work
	for rows.Next() {
		var w Work
		if err := rows.Scan(&w.ID, &w.Title, &w.Author, &w.Category, &w.Intro, &w.IsRecommend, &w.SourceURL, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan work: %w", err)
		}
		works = append(works, w)
	}
	return works, rows.Err()
}

// DeleteEmptyWorks removes works that have zero chapters. This is the only
// path that deletes works, and it is an explicit maintenance action.
func (s *Store) DeleteEmptyWorks(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM works w
		 WHERE NOT EXISTS (SELECT 1 FROM chapters c WHERE c.work_id = w.id)`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete empty works: %w", err)
	}
	return tag.RowsAffected(), nil
}
