// Package news stores and serves the news-article resource. Access
// control happens one layer up, this package trusts its callers.
package news

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/allegro/bigcache/v3"
)

type (
	// Article is a single news record. ImageURL points below the static
	// directory served by the HTTP layer.
	Article struct {
		ID               int64     `json:"id"`
		Title            string    `json:"title"`
		Subtitle         string    `json:"subtitle"`
		ImageURL         string    `json:"image_url"`
		ImageDescription string    `json:"image_description"`
		Body             string    `json:"body"`
		Date             time.Time `json:"date"`
	}

	// Store persists articles on sqlite and keeps a short-lived read
	// cache in front of single-article lookups. The cache is best
	// effort: a failed cache operation never fails the request.
	Store struct {
		db    *sql.DB
		cache *bigcache.BigCache
	}
)

func NewStore(db *sql.DB) (*Store, error) {
	cache, err := bigcache.NewBigCache(bigcache.DefaultConfig(10 * time.Minute))
	if err != nil {
		return nil, fmt.Errorf("unable to initialize article cache, cause %w", err)
	}
	return &Store{db: db, cache: cache}, nil
}

// Setup creates the news table. Safe to call on every startup.
func (s *Store) Setup(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `create table if not exists news(
		news_id integer primary key autoincrement,
		title text not null,
		subtitle text not null,
		image_url text not null,
		image_description text not null,
		body text not null,
		date text not null)`)
	if err != nil {
		return fmt.Errorf("unable to create news table, cause %w", err)
	}
	return nil
}

// Create stores a and fills in its ID and Date.
func (s *Store) Create(ctx context.Context, a *Article) error {
	a.Date = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`insert into news (title, subtitle, image_url, image_description, body, date) values (?, ?, ?, ?, ?, ?)`,
		a.Title, a.Subtitle, a.ImageURL, a.ImageDescription, a.Body, a.Date.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("unable to store news article, cause %w", err)
	}
	a.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("unable to read id of news article, cause %w", err)
	}
	return nil
}

// Get loads a single article, serving repeated reads from the cache.
func (s *Store) Get(ctx context.Context, id int64) (*Article, error) {
	if buf, err := s.cache.Get(cacheKey(id)); err == nil {
		var a Article
		if json.Unmarshal(buf, &a) == nil {
			return &a, nil
		}
	}
	var a Article
	var date string
	err := s.db.QueryRowContext(ctx,
		`select news_id, title, subtitle, image_url, image_description, body, date
		from news where news_id = ?`, id).
		Scan(&a.ID, &a.Title, &a.Subtitle, &a.ImageURL, &a.ImageDescription, &a.Body, &date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ArticleNotFound{ID: id}
	} else if err != nil {
		return nil, fmt.Errorf("unable to load news article %v, cause %w", id, err)
	}
	a.Date, err = time.Parse(time.RFC3339Nano, date)
	if err != nil {
		return nil, fmt.Errorf("unable to parse date of news article %v, cause %w", id, err)
	}
	if buf, err := json.Marshal(&a); err == nil {
		s.cache.Set(cacheKey(id), buf)
	}
	return &a, nil
}

// List returns up to limit articles starting at offset skip, oldest first.
func (s *Store) List(ctx context.Context, skip, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = 10
	}
	if skip < 0 {
		skip = 0
	}
	rows, err := s.db.QueryContext(ctx,
		`select news_id, title, subtitle, image_url, image_description, body, date
		from news order by news_id asc limit ? offset ?`, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("unable to list news articles, cause %w", err)
	}
	defer rows.Close()
	out := []Article{}
	for rows.Next() {
		var a Article
		var date string
		err = rows.Scan(&a.ID, &a.Title, &a.Subtitle, &a.ImageURL, &a.ImageDescription, &a.Body, &date)
		if err != nil {
			return nil, fmt.Errorf("unable to scan news article, cause %w", err)
		}
		a.Date, err = time.Parse(time.RFC3339Nano, date)
		if err != nil {
			return nil, fmt.Errorf("unable to parse date of news article %v, cause %w", a.ID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields of an existing article. The image is
// only replaced when a.ImageURL is non-empty.
func (s *Store) Update(ctx context.Context, a *Article) error {
	var res sql.Result
	var err error
	if a.ImageURL != "" {
		res, err = s.db.ExecContext(ctx,
			`update news set title = ?, subtitle = ?, image_url = ?, image_description = ?, body = ? where news_id = ?`,
			a.Title, a.Subtitle, a.ImageURL, a.ImageDescription, a.Body, a.ID)
	} else {
		res, err = s.db.ExecContext(ctx,
			`update news set title = ?, subtitle = ?, image_description = ?, body = ? where news_id = ?`,
			a.Title, a.Subtitle, a.ImageDescription, a.Body, a.ID)
	}
	if err != nil {
		return fmt.Errorf("unable to update news article %v, cause %w", a.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to update news article %v, cause %w", a.ID, err)
	}
	if n == 0 {
		return ArticleNotFound{ID: a.ID}
	}
	s.cache.Delete(cacheKey(a.ID))
	return nil
}

// Delete removes the article.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from news where news_id = ?`, id)
	if err != nil {
		return fmt.Errorf("unable to delete news article %v, cause %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to delete news article %v, cause %w", id, err)
	}
	if n == 0 {
		return ArticleNotFound{ID: id}
	}
	s.cache.Delete(cacheKey(id))
	return nil
}

func cacheKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
