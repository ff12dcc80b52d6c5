package migrate

import (
	"database/sql"

	"volley-globe/internal/logger"
)

// 背景：首次运行自动创建排名快照历史表
// 约束：使用 IF NOT EXISTS，可重复执行；条目随快照级联删除
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _vb_ranking_snapshots (
            id BIGSERIAL PRIMARY KEY,
            division TEXT NOT NULL,
            fetched_at TIMESTAMPTZ NOT NULL,
            entry_count INT NOT NULL,
            UNIQUE (division, fetched_at)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_vb_snapshots_division_time ON _vb_ranking_snapshots(division, fetched_at DESC)`,
		`CREATE TABLE IF NOT EXISTS _vb_ranking_entries (
            snapshot_id BIGINT NOT NULL REFERENCES _vb_ranking_snapshots(id) ON DELETE CASCADE,
            rank INT NOT NULL,
            federation TEXT NOT NULL,
            norm_name TEXT NOT NULL,
            points DOUBLE PRECISION NOT NULL,
            participation_points DOUBLE PRECISION NOT NULL DEFAULT 0,
            games_played INT NOT NULL DEFAULT 0,
            confederation TEXT NOT NULL DEFAULT '',
            trend INT NOT NULL DEFAULT 0,
            PRIMARY KEY (snapshot_id, rank)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_vb_entries_norm_name ON _vb_ranking_entries(norm_name)`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
