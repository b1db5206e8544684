package buttercup

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/disgoorg/json"
	"github.com/disgoorg/snowflake/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/topi314/buttercup/blossom"
)

//go:embed schema.sql
var Schema string

type Search struct {
	MessageID     snowflake.ID `db:"message_id"`
	Query         string       `db:"query"`
	AuthorID      *int         `db:"author_id"`
	CurPage       int          `db:"cur_page"`
	DiscordUserID snowflake.ID `db:"discord_user_id"`
	RequestPage   int          `db:"request_page"`
	ResponseData  *string      `db:"response_data"`
	LastModified  time.Time    `db:"last_modified"`
}

func NewDB(cfg DatabaseConfig, schema string) (*DB, error) {
	var (
		driverName     string
		dataSourceName string
	)
	switch cfg.Type {
	case DatabaseTypePostgres:
		driverName = "pgx"
		dataSourceName = cfg.Postgres.DataSourceName()
	case DatabaseTypeSQLite:
		driverName = "sqlite"
		dataSourceName = cfg.SQLite.DataSourceName()
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}

	dbx, err := sqlx.Connect(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if cfg.Type == DatabaseTypeSQLite {
		dbx.SetMaxOpenConns(1)
	}

	// apply schema
	if _, err = dbx.Exec(schema); err != nil {
		_ = dbx.Close()
		return nil, err
	}

	return &DB{dbx}, nil
}

type DB struct {
	dbx *sqlx.DB
}

func (d *DB) Close() error {
	return d.dbx.Close()
}

func (d *DB) SetSearch(ctx context.Context, search Search) error {
	_, err := d.dbx.NamedExecContext(ctx, `INSERT INTO searches (message_id, query, author_id, cur_page, discord_user_id, request_page, response_data, last_modified)
VALUES (:message_id, :query, :author_id, :cur_page, :discord_user_id, :request_page, :response_data, :last_modified)
ON CONFLICT (message_id) DO UPDATE SET
	query = excluded.query,
	author_id = excluded.author_id,
	cur_page = excluded.cur_page,
	discord_user_id = excluded.discord_user_id,
	request_page = excluded.request_page,
	response_data = excluded.response_data,
	last_modified = excluded.last_modified`, search)
	return err
}

func (d *DB) GetSearch(ctx context.Context, messageID snowflake.ID) (*Search, error) {
	var search Search
	if err := d.dbx.GetContext(ctx, &search, `SELECT message_id, query, author_id, cur_page, discord_user_id, request_page, response_data FROM searches WHERE message_id = $1`, messageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSearchNotFound
		}
		return nil, err
	}
	return &search, nil
}

// TrimSearches deletes all but the keep most recently modified searches.
func (d *DB) TrimSearches(ctx context.Context, keep int) (int64, error) {
	rs, err := d.dbx.ExecContext(ctx, `DELETE FROM searches WHERE message_id NOT IN (SELECT message_id FROM searches ORDER BY last_modified DESC LIMIT $1)`, keep)
	if err != nil {
		return 0, err
	}
	return rs.RowsAffected()
}

func (d *DB) CountSearches(ctx context.Context) (int, error) {
	var count int
	err := d.dbx.GetContext(ctx, &count, `SELECT COUNT(*) FROM searches`)
	return count, err
}

func NewDBSearchCache(db *DB, capacity int) *DBSearchCache {
	return &DBSearchCache{
		db:       db,
		capacity: capacity,
	}
}

// DBSearchCache keeps search sessions in the database so paging survives restarts.
type DBSearchCache struct {
	db       *DB
	capacity int
}

func (c *DBSearchCache) Get(ctx context.Context, messageID snowflake.ID) (*SearchSession, error) {
	search, err := c.db.GetSearch(ctx, messageID)
	if err != nil {
		return nil, err
	}

	session := SearchSession{
		Query:         search.Query,
		AuthorID:      search.AuthorID,
		CurPage:       search.CurPage,
		DiscordUserID: search.DiscordUserID,
		RequestPage:   search.RequestPage,
	}
	if search.ResponseData != nil {
		var data blossom.Page[blossom.Transcription]
		if err = json.Unmarshal([]byte(*search.ResponseData), &data); err != nil {
			return nil, fmt.Errorf("error decoding cached search response: %w", err)
		}
		session.ResponseData = &data
	}
	return &session, nil
}

func (c *DBSearchCache) Set(ctx context.Context, messageID snowflake.ID, session SearchSession) error {
	return c.set(ctx, messageID, session, time.Now())
}

func (c *DBSearchCache) set(ctx context.Context, messageID snowflake.ID, session SearchSession, now time.Time) error {
	search := Search{
		MessageID:     messageID,
		Query:         session.Query,
		AuthorID:      session.AuthorID,
		CurPage:       session.CurPage,
		DiscordUserID: session.DiscordUserID,
		RequestPage:   session.RequestPage,
		LastModified:  now.UTC(),
	}
	if session.ResponseData != nil {
		data, err := json.Marshal(session.ResponseData)
		if err != nil {
			return err
		}
		search.ResponseData = json.Ptr(string(data))
	}

	if err := c.db.SetSearch(ctx, search); err != nil {
		return err
	}
	_, err := c.db.TrimSearches(ctx, c.capacity)
	return err
}
