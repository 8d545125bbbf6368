package database

import (
	"database/sql"
	"strings"
)

const articleColumns = `id, link, title, summary, source, category, region,
	sentiment, sentiment_label, relevance, location, lat, lon, published, collected_at`

// InsertArticle inserts an article. Returns the ID on success, 0 if the
// link already exists. The UNIQUE constraint on link is the dedup guard:
// concurrent sync runs cannot double-insert the same article.
func (db *DB) InsertArticle(a *Article) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO articles (link, title, summary, source, category, region,
			sentiment, sentiment_label, relevance, location, lat, lon, published)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Link, a.Title, a.Summary, a.Source, a.Category, a.Region,
		a.Sentiment, a.SentimentLabel, a.Relevance, a.Location, a.Lat, a.Lon, a.Published,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, nil
		}
		return 0, err
	}
	return result.LastInsertId()
}

// ArticleExists reports whether an article with this link is already stored.
func (db *DB) ArticleExists(link string) (bool, error) {
	var one int
	err := db.conn.QueryRow("SELECT 1 FROM articles WHERE link = ?", link).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetAllArticles returns every stored article, newest first.
func (db *DB) GetAllArticles() ([]Article, error) {
	rows, err := db.conn.Query(
		"SELECT "+articleColumns+" FROM articles ORDER BY id DESC", //nolint: gosec
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// GetArticlesSince returns articles whose published timestamp is at or after
// cutoff (UTC RFC3339). Articles with a null published date are excluded:
// an undated article can never be "recent".
func (db *DB) GetArticlesSince(cutoff string) ([]Article, error) {
	rows, err := db.conn.Query(
		"SELECT "+articleColumns+" FROM articles WHERE published IS NOT NULL AND published >= ? ORDER BY published DESC", //nolint: gosec
		cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// GetStats returns aggregate counts for the status command.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{ByRegion: make(map[string]int)}

	if err := db.conn.QueryRow("SELECT COUNT(*) FROM articles").Scan(&s.TotalArticles); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM articles WHERE lat IS NOT NULL").Scan(&s.WithLocation); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM feeds").Scan(&s.Feeds); err != nil {
		return nil, err
	}

	rows, err := db.conn.Query("SELECT region, COUNT(*) FROM articles GROUP BY region")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var region string
		var count int
		if err := rows.Scan(&region, &count); err != nil {
			return nil, err
		}
		s.ByRegion[region] = count
	}
	return s, rows.Err()
}

func scanArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.ID, &a.Link, &a.Title, &a.Summary, &a.Source, &a.Category,
			&a.Region, &a.Sentiment, &a.SentimentLabel, &a.Relevance,
			&a.Location, &a.Lat, &a.Lon, &a.Published, &a.CollectedAt); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}
