package database

// UpsertFeed inserts or refreshes one feed registry entry, keyed by URL.
// Config is the source of truth; a changed name or region overwrites the
// stored row.
func (db *DB) UpsertFeed(url, name, region string, category *string) error {
	_, err := db.conn.Exec(
		`INSERT INTO feeds (url, name, region, category) VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET name = excluded.name,
			region = excluded.region, category = excluded.category`,
		url, name, region, category,
	)
	return err
}

// GetFeeds returns the feed registry in insertion order.
func (db *DB) GetFeeds() ([]FeedSource, error) {
	rows, err := db.conn.Query("SELECT id, url, name, region, category FROM feeds ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var feeds []FeedSource
	for rows.Next() {
		var f FeedSource
		if err := rows.Scan(&f.ID, &f.URL, &f.Name, &f.Region, &f.Category); err != nil {
			return nil, err
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}
