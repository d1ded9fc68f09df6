package tracer

import (
	"context"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set"

	"github.com/chainstamp/ChainStamp/log"
)

// History walks previous_record_id back-links starting at fromTxHash and
// returns the chain newest first. limit caps the walk length, zero or
// negative means unbounded. Digest-only and unlinked records end the walk
// cleanly. A dangling link returns the partial chain together with the
// fetch error. Cycles, which only a foreign writer could construct, are
// broken by a visited set.
func (p *Protocol) History(ctx context.Context, fromTxHash string, limit int) ([]*LedgerRecord, error) {
	chain := make([]*LedgerRecord, 0, 4)
	visited := mapset.NewThreadUnsafeSet()

	next := fromTxHash
	for next != "" {
		if limit > 0 && len(chain) >= limit {
			break
		}
		key := strings.ToLower(next)
		if visited.Contains(key) {
			log.Warn("record history loops, stopping walk", "txid", next)
			break
		}
		visited.Add(key)

		rec, err := p.Fetch(ctx, next)
		if err != nil {
			return chain, fmt.Errorf("history broken at %s: %w", next, err)
		}
		chain = append(chain, rec)
		next = rec.PreviousID
	}
	return chain, nil
}
