//go:build !nocgo

package store

// The default build uses mattn/go-sqlite3 (cgo). Build with -tags
// sqlite_fts5 so the driver links FTS5 in (mattn/go-sqlite3 omits it by
// default); sections_fts degrades to a warning and disabled search
// otherwise, handled in migrateFTS.
import _ "github.com/mattn/go-sqlite3"

const driverName = "sqlite3"
