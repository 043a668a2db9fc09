package facts

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Fingerprint computes a content hash of a fact set. Two fact sets that carry
// the same modules and edges produce the same fingerprint regardless of input
// ordering, so the hash can key a cache of analysis results across runs.
func Fingerprint(fs *FactSet) string {
	lines := make([]string, 0, len(fs.Modules)+len(fs.Edges))
	for _, m := range fs.Modules {
		lines = append(lines, "m\x00"+m.ID+"\x00"+m.DisplayName+"\x00"+m.Layer)
	}
	for _, e := range fs.Edges {
		lines = append(lines, "e\x00"+e.From+"\x00"+e.To+"\x00"+e.Kind)
	}
	sort.Strings(lines)

	h := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(h[:])
}
