package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/coinsurf-com/affiliate/pkg"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/valyala/bytebufferpool"
)

const pgCreateDocuments = `CREATE TABLE IF NOT EXISTS documents (
								collection text NOT NULL,
								id text NOT NULL,
								body jsonb NOT NULL,
								created timestamptz NOT NULL DEFAULT NOW(),
								updated timestamptz NOT NULL DEFAULT NOW(),
								PRIMARY KEY (collection, id)
							);
							CREATE INDEX IF NOT EXISTS documents_body_idx ON documents USING GIN (body jsonb_path_ops)`

const (
	pgInsertDocument = `INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3)`
	pgSelectDocument = `SELECT body FROM documents WHERE collection = $1 AND id = $2`
	pgSelectByField  = `SELECT body FROM documents WHERE collection = $1 AND body->>$2 = $3 ORDER BY created, id`
	pgUpdateDocument = `UPDATE documents SET body = body || $3::jsonb, updated = NOW() WHERE collection = $1 AND id = $2`
	pgCountByField   = `SELECT COUNT(*) FROM documents WHERE collection = $1 AND body->>$2 = $3`
)

// Postgres keeps every collection in a single JSONB table.
type Postgres struct {
	pg *sqlx.DB
}

func NewPostgres(pg *sqlx.DB) *Postgres {
	return &Postgres{pg: pg}
}

func (d *Postgres) Name() string {
	return "postgres"
}

func (d *Postgres) Migrate(ctx context.Context) error {
	_, err := d.pg.ExecContext(ctx, pgCreateDocuments)
	return errors.Wrap(err, "create documents table")
}

func (d *Postgres) Collection(name string) pkg.Collection {
	return &postgresCollection{pg: d.pg, name: name}
}

type postgresCollection struct {
	pg   *sqlx.DB
	name string
}

func (c *postgresCollection) Insert(ctx context.Context, id string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "marshal document")
	}

	_, err = c.pg.ExecContext(ctx, pgInsertDocument, c.name, id, body)
	if err != nil {
		return errors.Wrapf(err, "insert %s/%s", c.name, id)
	}

	return nil
}

func (c *postgresCollection) FindByID(ctx context.Context, id string, out interface{}) error {
	var body []byte
	err := c.pg.GetContext(ctx, &body, pgSelectDocument, c.name, id)
	if errors.Is(err, sql.ErrNoRows) {
		return pkg.ErrNotFound
	}
	if err != nil {
		return errors.Wrapf(err, "select %s/%s", c.name, id)
	}

	return json.Unmarshal(body, out)
}

func (c *postgresCollection) FindByField(ctx context.Context, field string, value interface{}, out interface{}) error {
	rows, err := c.pg.QueryxContext(ctx, pgSelectByField, c.name, field, fmt.Sprint(value))
	if err != nil {
		return errors.Wrapf(err, "select %s by %s", c.name, field)
	}
	defer rows.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteByte('[')
	var n int
	for rows.Next() {
		var body []byte
		if err = rows.Scan(&body); err != nil {
			return errors.Wrap(err, "scan document")
		}

		if n > 0 {
			buf.WriteByte(',')
		}
		buf.Write(body)
		n++
	}
	if err = rows.Err(); err != nil {
		return errors.Wrap(err, "iterate documents")
	}
	buf.WriteByte(']')

	return json.Unmarshal(buf.Bytes(), out)
}

func (c *postgresCollection) UpdateByID(ctx context.Context, id string, fields map[string]interface{}) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return errors.Wrap(err, "marshal patch")
	}

	res, err := c.pg.ExecContext(ctx, pgUpdateDocument, c.name, id, patch)
	if err != nil {
		return errors.Wrapf(err, "update %s/%s", c.name, id)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}

	if affected == 0 {
		return pkg.ErrNotFound
	}

	return nil
}

func (c *postgresCollection) Count(ctx context.Context, field string, value interface{}) (int64, error) {
	var count int64
	err := c.pg.GetContext(ctx, &count, pgCountByField, c.name, field, fmt.Sprint(value))
	return count, errors.Wrapf(err, "count %s by %s", c.name, field)
}
