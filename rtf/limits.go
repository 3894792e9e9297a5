package rtf

// Limits bounds resource use per scanned document. These guard against
// decompression-bomb-style inputs that declare enormous embedded objects.
// The zero value disables all limits, which matches the behaviour of the
// extractor before limits existed.
type Limits struct {
	// MaxObjectSize is the largest declared payload, in bytes, that will
	// be materialised to a temp file. Oversized objects are discarded.
	// Zero means unlimited.
	MaxObjectSize int64

	// MaxObjects is the number of embedded objects extracted per
	// document before the rest are discarded. Zero means unlimited.
	MaxObjects int
}

// DefaultLimits returns scanning-engine defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxObjectSize: 512 * 1024 * 1024, // 512 MiB
		MaxObjects:    1024,
	}
}
