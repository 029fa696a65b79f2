package fingerprint

import (
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/nao1215/uiscout/internal/model"
	"golang.org/x/crypto/blake2b"
)

// Of returns the hex-encoded BLAKE2b-256 digest of the sorted
// "<kind>:<selector>" signatures of elements.
//
// Design decision: We use BLAKE2b rather than MD5 because:
//  1. It is already part of the x/crypto dependency
//  2. It is faster than SHA-256 on 64-bit platforms
//  3. Accidental collisions across real pages are negligible
func Of(elements []model.Element) string {
	sum := blake2b.Sum256([]byte(encode(Signatures(elements))))
	return hex.EncodeToString(sum[:])
}

// encode length-prefixes each signature. Selectors copy attribute values
// verbatim and may contain any character, so no separator is safe.
func encode(sigs []string) string {
	var sb strings.Builder
	for _, sig := range sigs {
		sb.WriteString(strconv.Itoa(len(sig)))
		sb.WriteByte(':')
		sb.WriteString(sig)
	}
	return sb.String()
}

// Signatures returns the sorted "<kind>:<selector>" pairs of elements.
// Duplicates are kept, so the result reflects the multiset of pairs.
func Signatures(elements []model.Element) []string {
	sigs := make([]string, 0, len(elements))
	for _, e := range elements {
		sigs = append(sigs, e.Signature())
	}
	sort.Strings(sigs)
	return sigs
}

// Set tracks fingerprints already seen during one crawl.
// It is not safe for concurrent use; each crawl owns its own Set.
type Set struct {
	seen map[string]struct{}
}

// NewSet creates an empty fingerprint set.
func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// Add records fp and reports whether it was new.
func (s *Set) Add(fp string) bool {
	if _, ok := s.seen[fp]; ok {
		return false
	}
	s.seen[fp] = struct{}{}
	return true
}

// Contains reports whether fp has been recorded.
func (s *Set) Contains(fp string) bool {
	_, ok := s.seen[fp]
	return ok
}

// Len returns the number of distinct fingerprints recorded.
func (s *Set) Len() int {
	return len(s.seen)
}
