package store

import (
	"crypto/sha256"
	"fmt"
	"sort"
)

// ContentHash returns the hex SHA-256 of a file's bytes. Unchanged hashes
// let the indexer skip a file.
func ContentHash(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}

// ScriptsHash hashes a set of named scripts independent of map order.
// Stored alongside the index so a rule change invalidates old findings.
func ScriptsHash(scripts map[string][]byte) string {
	names := make([]string, 0, len(scripts))
	for name := range scripts {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		fmt.Fprintf(h, "%s\n%d\n", name, len(scripts[name]))
		h.Write(scripts[name])
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
