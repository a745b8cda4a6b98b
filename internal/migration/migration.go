package migration

import (
	"crypto/md5" //nolint:gosec // ledger format is MD5, not a security boundary
	"encoding/hex"
)

// Migration represents a single SQL migration file loaded from disk.
type Migration struct {
	Name     string // file name, the ledger key (e.g. "004_add_profiles.sql")
	Prefix   string // leading digits of Name, "" if none
	SQL      string // raw file contents, sent to the backend as one statement
	Checksum string // MD5 hex digest of SQL
	FilePath string
}

// ComputeChecksum returns the lowercase hex MD5 digest of the given SQL text.
func ComputeChecksum(sql string) string {
	h := md5.Sum([]byte(sql)) //nolint:gosec // see import

	return hex.EncodeToString(h[:])
}
