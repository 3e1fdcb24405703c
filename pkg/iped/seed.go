package iped

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// respondentSeed derives the seed for one respondent's random stream
// from the master seed. Each respondent gets an independent stream so
// that generation order never changes what a respondent draws.
func respondentSeed(master int64, respondent int) int64 {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[:8], uint64(master))
	binary.LittleEndian.PutUint64(b[8:], uint64(respondent))
	return int64(xxhash.Sum64(b[:]))
}

// poolSeed derives the stream used for candidate down-sampling. The
// sentinel index keeps it disjoint from every respondent stream.
func poolSeed(master int64) int64 {
	return respondentSeed(master, -1)
}
