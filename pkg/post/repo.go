package post

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v4/stdlib"
)

var (
	ErrPostNotFound = errors.New("post/repo: post not found")

	// ErrNotOwner covers both "post does not exist" and "post belongs to
	// someone else": the ownership-scoped statements match zero rows in
	// either case and the two are indistinguishable on purpose.
	ErrNotOwner = errors.New("post/repo: post not found or not owned by user")
)

type Repo struct {
	db *sql.DB
}

func NewPostRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// List returns one page of a board, filtered by a substring match on the
// title (LIKE, so case-sensitive). Pages past the last one are not an
// error: they come back with no items and a non-positive StartNumber.
func (r *Repo) List(ctx context.Context, boardType string, q ListQuery) (*ListPage, error) {
	pattern := "%" + q.Search + "%"

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE board_type = $1 AND title LIKE $2`,
		boardType, pattern).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("post/repo: failed counting posts: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.title, u.display_name, p.views, p.created_at
		 FROM posts p
		 JOIN users u ON p.user_id = u.id
		 WHERE p.board_type = $1 AND p.title LIKE $2
		 ORDER BY p.id DESC
		 LIMIT $3 OFFSET $4`,
		boardType, pattern, q.PageSize, q.Offset())
	if err != nil {
		return nil, fmt.Errorf("post/repo: failed selecting posts page: %w", err)
	}
	defer rows.Close()

	items := []*ListItem{}
	for rows.Next() {
		it := new(ListItem)
		if err := rows.Scan(&it.Id, &it.Title, &it.Writer, &it.Views, &it.Created); err != nil {
			return nil, fmt.Errorf("post/repo: could not scan post row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("post/repo: failed reading post rows: %w", err)
	}

	return &ListPage{
		Items:       items,
		Page:        q.Page,
		TotalCount:  total,
		TotalPages:  (total + q.PageSize - 1) / q.PageSize,
		StartNumber: total - q.Offset(),
		Search:      q.Search,
	}, nil
}

func (r *Repo) Add(ctx context.Context, boardType string, userID int64, title, content string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO posts (board_type, title, content, user_id)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		boardType, title, content, userID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("post/repo: failed inserting a post: %w", err)
	}
	return id, nil
}

// GetAndCountView bumps the view counter and then fetches the post. The
// bump runs first and matches zero rows for unknown ids, which is fine:
// the fetch then reports ErrPostNotFound and no counter has moved.
func (r *Repo) GetAndCountView(ctx context.Context, boardType string, id int64) (*Post, error) {
	_, err := r.db.ExecContext(ctx,
		`UPDATE posts SET views = views + 1 WHERE id = $1 AND board_type = $2`,
		id, boardType)
	if err != nil {
		return nil, fmt.Errorf("post/repo: failed incrementing views: %w", err)
	}

	p := new(Post)
	err = r.db.QueryRowContext(ctx,
		`SELECT p.id, p.board_type, p.title, p.content, p.user_id, u.display_name, p.views, p.created_at
		 FROM posts p
		 JOIN users u ON p.user_id = u.id
		 WHERE p.id = $1 AND p.board_type = $2`,
		id, boardType).
		Scan(&p.Id, &p.BoardType, &p.Title, &p.Content, &p.UserId, &p.Writer, &p.Views, &p.Created)
	if err == sql.ErrNoRows {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("post/repo: failed selecting post: %w", err)
	}
	return p, nil
}

// GetOwned fetches a post only when userID is its author, for prefilling
// the edit form.
func (r *Repo) GetOwned(ctx context.Context, boardType string, id, userID int64) (*Post, error) {
	p := new(Post)
	err := r.db.QueryRowContext(ctx,
		`SELECT p.id, p.board_type, p.title, p.content, p.user_id, u.display_name, p.views, p.created_at
		 FROM posts p
		 JOIN users u ON p.user_id = u.id
		 WHERE p.id = $1 AND p.board_type = $2 AND p.user_id = $3`,
		id, boardType, userID).
		Scan(&p.Id, &p.BoardType, &p.Title, &p.Content, &p.UserId, &p.Writer, &p.Views, &p.Created)
	if err == sql.ErrNoRows {
		return nil, ErrNotOwner
	}
	if err != nil {
		return nil, fmt.Errorf("post/repo: failed selecting own post: %w", err)
	}
	return p, nil
}

func (r *Repo) Update(ctx context.Context, boardType string, id, userID int64, title, content string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET title = $1, content = $2
		 WHERE id = $3 AND board_type = $4 AND user_id = $5`,
		title, content, id, boardType, userID)
	if err != nil {
		return fmt.Errorf("post/repo: failed updating post: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("post/repo: failed reading update result: %w", err)
	}
	if affected == 0 {
		return ErrNotOwner
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, boardType string, id, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM posts WHERE id = $1 AND board_type = $2 AND user_id = $3`,
		id, boardType, userID)
	if err != nil {
		return fmt.Errorf("post/repo: failed deleting post: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("post/repo: failed reading delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotOwner
	}
	return nil
}
