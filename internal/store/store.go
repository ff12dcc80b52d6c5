// 包 store：排名快照历史的 PostgreSQL 读写
package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"volley-globe/internal/logger"
	"volley-globe/internal/rankings"
	"volley-globe/internal/reconcile"
)

// Store：持有连接池；实现 rankings.Recorder
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// HistoryPoint：某联合会在一次快照中的名次与积分
type HistoryPoint struct {
	FetchedAt      time.Time `json:"fetchedAt"`
	Rank           int       `json:"rank"`
	Points         float64   `json:"points"`
	FederationName string    `json:"federationName"`
}

// Record：在一个事务内写入快照及全部条目；同一组别同一拉取时间重复写入被忽略
func (s *Store) Record(ctx context.Context, snap rankings.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO _vb_ranking_snapshots(division, fetched_at, entry_count) VALUES($1,$2,$3)
         ON CONFLICT (division, fetched_at) DO NOTHING RETURNING id`,
		string(snap.Division), snap.FetchedAt.UTC(), len(snap.Entries),
	).Scan(&id)
	if err == sql.ErrNoRows {
		logger.L().Debug("db_snapshot_duplicate", "division", snap.Division, "fetched_at", snap.FetchedAt)
		return nil
	}
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO _vb_ranking_entries(snapshot_id, rank, federation, norm_name, points, participation_points, games_played, confederation, trend)
         VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, e := range snap.Entries {
		if _, err := stmt.ExecContext(ctx, id, e.Rank, e.FederationName, reconcile.Normalize(e.FederationName),
			e.Points, e.ParticipationPoints, e.GamesPlayed, e.ConfederationName, e.Trend); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	logger.L().Debug("db_snapshot_recorded", "division", snap.Division, "id", id, "entries", len(snap.Entries))
	return nil
}

// History：联合会名次随时间的变化，最新在前
func (s *Store) History(ctx context.Context, d rankings.Division, federation string, limit int) ([]HistoryPoint, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.fetched_at, e.rank, e.points, e.federation
         FROM _vb_ranking_entries e JOIN _vb_ranking_snapshots s ON s.id = e.snapshot_id
         WHERE s.division=$1 AND e.norm_name=$2
         ORDER BY s.fetched_at DESC LIMIT $3`,
		string(d), reconcile.Normalize(federation), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []HistoryPoint
	for rows.Next() {
		var p HistoryPoint
		if err := rows.Scan(&p.FetchedAt, &p.Rank, &p.Points, &p.FederationName); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Prune：每个组别只保留最近 keep 次快照
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM _vb_ranking_snapshots WHERE id IN (
            SELECT id FROM (
                SELECT id, row_number() OVER (PARTITION BY division ORDER BY fetched_at DESC) AS rn
                FROM _vb_ranking_snapshots
            ) t WHERE t.rn > $1
        )`, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
