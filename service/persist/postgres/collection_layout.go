package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/mikeydub/go-gallery-layout/service/persist"
)

// Querier is the subset of a pgx pool the layout repository needs
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

const (
	getCollectionLayoutByIDSQL = `SELECT ID, OWNER_USER_ID, VERSION, NFTS, LAYOUT, LAST_UPDATED
		FROM collections WHERE ID = $1 AND DELETED = false;`

	listCollectionIDsSQL = `SELECT ID FROM collections WHERE DELETED = false AND ID > $1 ORDER BY ID LIMIT $2;`

	filterLiveTokensSQL = `SELECT ID FROM tokens WHERE ID = ANY($1) AND OWNER_USER_ID = $2 AND DELETED = false;`

	updateCollectionLayoutSQL = `UPDATE collections SET NFTS = $1, LAYOUT = $2, VERSION = 1, LAST_UPDATED = $3
		WHERE ID = $4 AND LAST_UPDATED = $5 AND DELETED = false;`

	collectionExistsSQL = `SELECT EXISTS(SELECT 1 FROM collections WHERE ID = $1 AND DELETED = false);`
)

// CollectionLayoutRepository reads and rewrites the layouts of collections in a postgres database
type CollectionLayoutRepository struct {
	db  Querier
	now func() time.Time
}

var _ persist.CollectionLayoutRepository = (*CollectionLayoutRepository)(nil)

// NewCollectionLayoutRepository creates a new CollectionLayoutRepository
func NewCollectionLayoutRepository(db Querier) *CollectionLayoutRepository {
	return &CollectionLayoutRepository{db: db, now: time.Now}
}

// GetByID returns the tokens and layout of a collection
func (c *CollectionLayoutRepository) GetByID(ctx context.Context, id persist.DBID) (persist.CollectionLayoutRecord, error) {
	var (
		collectionID string
		ownerID      string
		version      pgtype.Int4
		tokens       []string
		layout       pgtype.JSONB
		lastUpdated  time.Time
	)

	err := c.db.QueryRow(ctx, getCollectionLayoutByIDSQL, id.String()).Scan(&collectionID, &ownerID, &version, &tokens, &layout, &lastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return persist.CollectionLayoutRecord{}, persist.ErrCollectionNotFoundByID{ID: id}
	}
	if err != nil {
		return persist.CollectionLayoutRecord{}, err
	}

	record := persist.CollectionLayoutRecord{
		ID:          persist.DBID(collectionID),
		OwnerUserID: persist.DBID(ownerID),
		Tokens:      persist.StringsToDBIDs(tokens),
		LastUpdated: persist.LastUpdatedTime(lastUpdated),
	}

	if version.Status == pgtype.Present {
		record.Version = persist.NullInt32(version.Int)
	}

	if layout.Status == pgtype.Present {
		if err := layout.AssignTo(&record.Layout); err != nil {
			return persist.CollectionLayoutRecord{}, fmt.Errorf("failed to read layout of collection %s: %w", id, err)
		}
	}

	return record, nil
}

// ListIDs returns up to limit collection IDs that sort after the given ID
func (c *CollectionLayoutRepository) ListIDs(ctx context.Context, after persist.DBID, limit int) ([]persist.DBID, error) {
	rows, err := c.db.Query(ctx, listCollectionIDsSQL, after.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]persist.DBID, 0, limit)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, persist.DBID(id))
	}

	return ids, rows.Err()
}

// FilterLiveTokens returns the tokens that are not deleted and still belong to ownerID, in the order given
func (c *CollectionLayoutRepository) FilterLiveTokens(ctx context.Context, ownerID persist.DBID, tokens []persist.DBID) ([]persist.DBID, error) {
	if len(tokens) == 0 {
		return []persist.DBID{}, nil
	}

	rows, err := c.db.Query(ctx, filterLiveTokensSQL, persist.DBIDsToStrings(tokens), ownerID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	live := make(map[persist.DBID]bool, len(tokens))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		live[persist.DBID(id)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]persist.DBID, 0, len(live))
	for _, token := range tokens {
		if live[token] {
			result = append(result, token)
		}
	}

	return result, nil
}

// UpdateLayout rewrites the tokens and layout of a collection if it has not changed since update.LastUpdated
func (c *CollectionLayoutRepository) UpdateLayout(ctx context.Context, id persist.DBID, update persist.CollectionLayoutUpdateInput) error {
	layout, err := json.Marshal(update.Layout)
	if err != nil {
		return err
	}

	tag, err := c.db.Exec(ctx, updateCollectionLayoutSQL,
		persist.DBIDsToStrings(update.Tokens),
		pgtype.JSONB{Bytes: layout, Status: pgtype.Present},
		c.now(),
		id.String(),
		update.LastUpdated.Time(),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := c.db.QueryRow(ctx, collectionExistsSQL, id.String()).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return persist.ErrCollectionNotFoundByID{ID: id}
	}

	return persist.ErrStaleCollection{ID: id}
}
