package reputation

import (
	"context"
	"errors"
	"hash/fnv"
	"net/netip"

	lru "github.com/hashicorp/golang-lru/v2"

	"microsoc/internal/logger"
	"microsoc/internal/metrics"
	"microsoc/pkg/models"
)

var errNoLookup = errors.New("no reputation lookup configured")

// localRecord is returned for private and loopback addresses without
// consulting the cache or the external service.
var localRecord = models.ReputationRecord{OriginRegion: "Local Network", AbuseScore: 0}

// fallbackRegions is the fixed region list used to synthesize records when
// the external lookup is unavailable. Selection is a pure function of the
// address so repeated failures yield identical records.
var fallbackRegions = []string{
	"North America",
	"South America",
	"Western Europe",
	"Eastern Europe",
	"Middle East",
	"East Asia",
	"South Asia",
	"Oceania",
	"Africa",
}

// Resolver enriches source addresses with reputation records. Resolve never
// fails: cache entries are write-once for the process lifetime, and external
// failures are replaced by a deterministic fallback stored exactly like real
// data so a failed address is never re-attempted.
type Resolver struct {
	cache  *lru.Cache[string, models.ReputationRecord]
	lookup Lookup
}

// NewResolver creates a resolver with a bounded cache. lookup may be nil, in
// which case every non-local address resolves to its fallback record.
func NewResolver(cacheSize int, lookup Lookup) (*Resolver, error) {
	if cacheSize <= 0 {
		cacheSize = 4096
	}
	cache, err := lru.New[string, models.ReputationRecord](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Resolver{cache: cache, lookup: lookup}, nil
}

// Resolve returns the reputation record for an address.
func (r *Resolver) Resolve(ctx context.Context, address string) models.ReputationRecord {
	if isLocalAddress(address) {
		return localRecord
	}

	if rec, ok := r.cache.Get(address); ok {
		metrics.ReputationCacheHits.Inc()
		return rec
	}

	rec, err := r.externalLookup(ctx, address)
	if err != nil {
		metrics.ReputationLookupFailures.Inc()
		metrics.ReputationFallbacks.Inc()
		logger.Debugf("Reputation lookup failed for %s, using fallback: %v", address, err)
		rec = FallbackRecord(address)
	}

	r.cache.Add(address, rec)
	return rec
}

func (r *Resolver) externalLookup(ctx context.Context, address string) (models.ReputationRecord, error) {
	if r.lookup == nil {
		return models.ReputationRecord{}, errNoLookup
	}
	return r.lookup.Lookup(ctx, address)
}

// FallbackRecord deterministically derives a reputation record from the
// address itself.
func FallbackRecord(address string) models.ReputationRecord {
	h := fnv.New32a()
	h.Write([]byte(address))
	sum := h.Sum32()
	return models.ReputationRecord{
		OriginRegion: fallbackRegions[int(sum)%len(fallbackRegions)],
		AbuseScore:   int((sum >> 8) % 101),
		Fallback:     true,
	}
}

func isLocalAddress(address string) bool {
	addr, err := netip.ParseAddr(address)
	if err != nil {
		return false
	}
	return addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast() || addr.IsUnspecified()
}
