package buddy

// Guard constants are derived from a chunk's descriptor fields. They are
// not cryptographic; they exist to catch accidental payload overflow and
// double-free-style descriptor overwrites, not a malicious actor.
const (
	leadingSalt   = 0x4255444459 // "BUDDY" in hex-ish form
	trailingSalt  = 0x4755415244 // "GUARD"
)

// mix is a small, fast bit-mixing function (the MurmurHash3 fmix64
// finalizer); it has no cryptographic pretensions.
func mix(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}

func computeLeadingGuard(d *descriptor) uint64 {
	h := leadingSalt
	h = int(mix(uint64(h) ^ uint64(d.state)))
	h = int(mix(uint64(h) ^ d.index))
	h = int(mix(uint64(h) ^ uint64(d.totalSize)))
	return mix(uint64(h) ^ uint64(d.size))
}

func computeTrailingGuard(d *descriptor) uint64 {
	h := trailingSalt
	h = int(mix(uint64(h) ^ uint64(d.size)))
	h = int(mix(uint64(h) ^ uint64(d.totalSize)))
	h = int(mix(uint64(h) ^ d.index))
	return mix(uint64(h) ^ uint64(d.state))
}

// refreshGuards recomputes both guards after a field mutation.
func refreshGuards(d *descriptor) {
	d.leadingGuard = computeLeadingGuard(d)
	d.trailingGuard = computeTrailingGuard(d)
}

// validateGuards recomputes both guards and reports whether they still
// match what is stored in the descriptor.
func validateGuards(d *descriptor) bool {
	return d.leadingGuard == computeLeadingGuard(d) && d.trailingGuard == computeTrailingGuard(d)
}
