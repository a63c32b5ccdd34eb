//go:build nocgo

package store

// Building with -tags nocgo swaps in modernc.org/sqlite, a pure-Go driver,
// for environments without a C toolchain.
import _ "modernc.org/sqlite"

const driverName = "sqlite"
