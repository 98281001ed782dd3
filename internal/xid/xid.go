// Package xid generates prefixed unique ids for store records, e.g.
// "prod-..." for products and "slog-..." for stock ledger entries. The
// timestamp component makes ids from one process sortable by creation
// order.
package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// New returns "<prefix>-<unixnano>-<random hex>". An empty prefix
// defaults to "id". If crypto/rand fails the random suffix is dropped
// rather than failing id generation.
func New(prefix string) string {
	if prefix == "" {
		prefix = "id"
	}
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(buf))
}
