// Package experiment implements deterministic hash-based assignment of
// users to A/B experiment groups.
//
// Bucketing scheme: md5 over the decimal user id (absolute value)
// concatenated with the salt, the full digest read as an unsigned
// integer, modulo 100. Each group owns a contiguous bucket range; with
// the default 50% split control owns [0, 50) and test owns [50, 100).
// The assignment is a pure function of (id, salt, ranges) and is stable
// across processes and restarts.
package experiment

import (
	"crypto/md5"
	"fmt"
	"math/big"
	"sort"
	"strconv"
)

// Group is an A/B experiment bucket label.
type Group string

const (
	GroupControl Group = "control"
	GroupTest    Group = "test"
)

const bucketCount = 100

// Range assigns a contiguous bucket interval [Lower, Upper) to a group.
type Range struct {
	Group Group
	Lower int
	Upper int
}

// Splitter assigns users to experiment groups.
type Splitter struct {
	salt   string
	ranges []Range
}

// NewSplitter builds a splitter for a two-group split: control owns
// [0, splitPercentage), test owns the rest.
func NewSplitter(salt string, splitPercentage int) (*Splitter, error) {
	return NewSplitterWithRanges(salt, []Range{
		{Group: GroupControl, Lower: 0, Upper: splitPercentage},
		{Group: GroupTest, Lower: splitPercentage, Upper: bucketCount},
	})
}

// NewSplitterWithRanges builds a splitter from explicit group ranges.
// The ranges must tile [0, 100) exactly: no overlaps, no gaps.
func NewSplitterWithRanges(salt string, ranges []Range) (*Splitter, error) {
	if len(ranges) == 0 {
		return nil, fmt.Errorf("experiment: at least one group range is required")
	}

	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Lower != sorted[j].Lower {
			return sorted[i].Lower < sorted[j].Lower
		}
		// Empty ranges share their Lower with the following range.
		return sorted[i].Upper < sorted[j].Upper
	})

	next := 0
	for _, r := range sorted {
		if r.Group == "" {
			return nil, fmt.Errorf("experiment: group name must not be empty")
		}
		if r.Lower != next {
			return nil, fmt.Errorf("experiment: ranges must tile [0, %d) without gaps or overlaps, got boundary %d where %d was expected", bucketCount, r.Lower, next)
		}
		if r.Upper < r.Lower {
			return nil, fmt.Errorf("experiment: range for group %q is inverted (%d > %d)", r.Group, r.Lower, r.Upper)
		}
		next = r.Upper
	}
	if next != bucketCount {
		return nil, fmt.Errorf("experiment: ranges must cover [0, %d), got upper bound %d", bucketCount, next)
	}

	return &Splitter{salt: salt, ranges: sorted}, nil
}

// Assign returns the experiment group for a user id. Negative ids are
// bucketed by their absolute value.
func (s *Splitter) Assign(userID int64) Group {
	b := s.Bucket(userID)
	for _, r := range s.ranges {
		if b >= r.Lower && b < r.Upper {
			return r.Group
		}
	}
	// Unreachable: the constructor guarantees the ranges tile [0, 100).
	return s.ranges[len(s.ranges)-1].Group
}

// Bucket returns the raw bucket in [0, 100) for a user id.
func (s *Splitter) Bucket(userID int64) int {
	if userID < 0 {
		userID = -userID
	}
	sum := md5.Sum([]byte(strconv.FormatInt(userID, 10) + s.salt))
	n := new(big.Int).SetBytes(sum[:])
	return int(new(big.Int).Mod(n, big.NewInt(bucketCount)).Int64())
}

// Groups returns the configured group labels in bucket order.
func (s *Splitter) Groups() []Group {
	groups := make([]Group, 0, len(s.ranges))
	for _, r := range s.ranges {
		groups = append(groups, r.Group)
	}
	return groups
}
