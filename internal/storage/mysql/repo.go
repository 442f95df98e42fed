package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"

	"property_submission/internal/domain"
)

// errDuplicateEntry is MySQL's ER_DUP_ENTRY.
const errDuplicateEntry = 1062

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// Repo stores each record as its JSON payload plus a few columns for
// filtering and lookup.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// Open connects with the DSN and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

type columns struct {
	status, title, propertyType, transactionType, city any
	price, lat, lon                                    any
	geohash                                            any
	payload                                            string
}

func toColumns(rec domain.Record) (columns, error) {
	body, err := json.Marshal(rec.Payload)
	if err != nil {
		return columns{}, fmt.Errorf("encode payload: %w", err)
	}
	c := columns{
		status:          rec.Status,
		title:           valStr(rec.Title),
		propertyType:    valStr(rec.PropertyType),
		transactionType: valStr(rec.TransactionType),
		geohash:         valStr(rec.Geohash),
		payload:         string(body),
	}
	if rec.Price != nil {
		c.price = valF64(rec.Price.Amount)
	}
	if rec.Location != nil {
		c.city = valStr(rec.Location.City)
		if co := rec.Location.Coordinates; co != nil {
			c.lat, c.lon = valF64(co.Latitude), valF64(co.Longitude)
		}
	}
	return c, nil
}

func (r *Repo) Insert(ctx context.Context, rec domain.Record, key string) error {
	c, err := toColumns(rec)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, insertPropertySQL,
		rec.ID, rec.OwnerID, c.status, c.title, c.propertyType, c.transactionType, c.city,
		c.price, c.lat, c.lon, c.geohash, c.payload, valStr(key), rec.CreatedAt, rec.UpdatedAt,
	)
	var me *mysqldrv.MySQLError
	if errors.As(err, &me) && me.Number == errDuplicateEntry {
		return fmt.Errorf("property %s: %w", rec.ID, domain.ErrConflict)
	}
	return err
}

func (r *Repo) Update(ctx context.Context, rec domain.Record) error {
	c, err := toColumns(rec)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, updatePropertySQL,
		c.status, c.title, c.propertyType, c.transactionType, c.city,
		c.price, c.lat, c.lon, c.geohash, c.payload, rec.UpdatedAt, rec.ID,
	)
	if err != nil {
		return err
	}
	// rows affected is 0 for an unchanged row too, so only a missing id is an error
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.Get(ctx, rec.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id string) (domain.Record, error) {
	return scanRecord(r.db.QueryRowContext(ctx, getPropertySQL, id))
}

func (r *Repo) FindByIdempotencyKey(ctx context.Context, owner, key string) (domain.Record, error) {
	return scanRecord(r.db.QueryRowContext(ctx, findByKeySQL, owner, key))
}

func scanRecord(row *sql.Row) (domain.Record, error) {
	var (
		rec     domain.Record
		geohash sql.NullString
		body    []byte
	)
	if err := row.Scan(&rec.ID, &rec.OwnerID, &geohash, &body, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Record{}, domain.ErrNotFound
		}
		return domain.Record{}, err
	}
	if err := json.Unmarshal(body, &rec.Payload); err != nil {
		return domain.Record{}, fmt.Errorf("decode payload of %s: %w", rec.ID, err)
	}
	rec.Geohash = geohash.String
	return rec, nil
}
