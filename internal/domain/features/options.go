package features

// DedupPolicy decides when a vendor "Goal" row that follows a scoring "Shot"
// row is an annotation of that shot rather than a second goal.
type DedupPolicy string

// Dedup policies.
const (
	// DedupSamePlayer collapses the pair only when both rows share a player;
	// other pairs are kept and counted as mismatches.
	DedupSamePlayer DedupPolicy = "same_player"
	// DedupAdjacent collapses any adjacent pair regardless of player.
	DedupAdjacent DedupPolicy = "adjacent"
	// DedupOff counts every goal row.
	DedupOff DedupPolicy = "off"
)

const defaultLookahead = 10

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithLookahead sets K, the number of following actions scanned for labels.
func WithLookahead(k int) Option {
	return func(b *Builder) {
		if k > 0 {
			b.lookahead = k
		}
	}
}

// WithDedupPolicy sets the goal dedup policy. Unknown values are ignored.
func WithDedupPolicy(p DedupPolicy) Option {
	return func(b *Builder) {
		switch p {
		case DedupSamePlayer, DedupAdjacent, DedupOff:
			b.dedup = p
		}
	}
}
