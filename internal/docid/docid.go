// Package docid derives the stable document identity for a record. The UID
// is persisted in the index, so its format must never change without a full
// reindex.
package docid

import "strings"

const prefix = "UID-"

// UID returns the document identity for a record: the primary key, record
// type name, and indexer descriptor joined under a fixed prefix. The same
// triple always yields the same UID, which is what makes replace-by-identity
// and delete-by-identity work.
func UID(primaryKey, typeName, descriptor string) string {
	return prefix + primaryKey + "-" + typeName + "-" + descriptor
}

// IsUID reports whether s carries the document identity prefix.
func IsUID(s string) bool {
	return strings.HasPrefix(s, prefix)
}
