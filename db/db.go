package db

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/database"
	"github.com/xxxsen/common/database/sqlite"
)

var (
	dbClient database.IDatabase
)

var sqllist = []struct {
	name string
	sql  string
}{
	{
		name: "init_dav_entry_tab",
		sql: `
CREATE TABLE IF NOT EXISTS dav_entry_tab (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    entry_id        INTEGER NOT NULL,
    parent_entry_id INTEGER NOT NULL,
    file_kind       INTEGER NOT NULL,
    ctime           INTEGER,
    mtime           INTEGER,
    file_size       INTEGER,
    file_mode       INTEGER,
    file_name       TEXT NOT NULL,
    content_id      INTEGER NOT NULL DEFAULT 0,
    UNIQUE (entry_id),
    UNIQUE (parent_entry_id, file_name)
);
		`,
	},
	{
		name: "init_dav_entry_content_idx",
		sql:  `CREATE INDEX IF NOT EXISTS idx_dav_entry_content_id ON dav_entry_tab (content_id);`,
	},
	{
		name: "init_dav_content_tab",
		sql: `
CREATE TABLE IF NOT EXISTS dav_content_tab (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    content_id  INTEGER NOT NULL,
    data        BLOB,
    ctime       INTEGER,
    UNIQUE (content_id)
);
		`,
	},
}

// Open 打开数据库并初始化表结构, 每次调用都会返回一个新的连接
func Open(file string) (database.IDatabase, error) {
	ctx := context.Background()
	db, err := sqlite.New(file, func(db database.IDatabase) error {
		for _, item := range sqllist {
			if _, err := db.ExecContext(ctx, item.sql); err != nil {
				return fmt.Errorf("init sql failed, sql:%s, err:%w", item.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func InitDB(file string) error {
	db, err := Open(file)
	if err != nil {
		return err
	}
	dbClient = db
	return nil
}

func GetClient() database.IDatabase {
	return dbClient
}
