package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Band is a numbering sequence.  Numbers are Prefix followed by a
// zero-padded counter of at least four digits that starts at Start.
type Band struct {
	Key    string
	Prefix string
	Start  int
}

// DefaultLegacyPrefix prefixes numbers of categories outside the three
// named bands, and of the virtual id shown for bookings without a number.
const DefaultLegacyPrefix = "NY2025-"

const legacyBand = "legacy"

// BandFor maps a category name, case-insensitively, to its band.
func BandFor(categoryName, legacyPrefix string) Band {
	switch strings.ToLower(strings.TrimSpace(categoryName)) {
	case "couple":
		return Band{Key: "couple", Start: 1}
	case "family":
		return Band{Key: "family", Start: 1001}
	case "teens":
		return Band{Key: "teens", Start: 2001}
	}
	return Band{Key: legacyBand, Prefix: legacyPrefix, Start: 1}
}

// Format renders n in the band's display form.
func (b Band) Format(n int) string {
	return fmt.Sprintf("%s%04d", b.Prefix, n)
}

// Parse recovers the counter from a stored number: digits only, after an
// optional band prefix.  Anything else is rejected.
func (b Band) Parse(number string) (int, bool) {
	rest := strings.TrimPrefix(strings.TrimSpace(number), b.Prefix)
	if rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NumberSource reads stored booking numbers.  TopNumbersInBand pages
// through a band ordered by counter, highest first; NumberTaken checks a
// number against every band.
type NumberSource interface {
	TopNumbersInBand(ctx context.Context, band, prefix string, limit, offset int) ([]string, error)
	NumberTaken(ctx context.Context, number string) (bool, error)
}

const numberScanPage = 50

// Allocator derives the next display number of a band.  It does not
// reserve anything: two callers can compute the same number, and the
// unique key on bookings.booking_number decides which insert wins.
type Allocator struct {
	src          NumberSource
	legacyPrefix string
}

func NewAllocator(src NumberSource, legacyPrefix string) *Allocator {
	if legacyPrefix == "" {
		legacyPrefix = DefaultLegacyPrefix
	}
	return &Allocator{src: src, legacyPrefix: legacyPrefix}
}

// Allocation is a computed number together with its band.
type Allocation struct {
	Number string
	Band   Band
}

// Next computes the highest parseable number in the band plus one, or the
// band start when the band holds none.  Numbers already held by a booking
// of another band, or by one that won a race, are stepped over.
func (a *Allocator) Next(ctx context.Context, categoryName string) (Allocation, error) {
	band := BandFor(categoryName, a.legacyPrefix)
	highest, found, err := a.highest(ctx, band)
	if err != nil {
		return Allocation{}, err
	}
	next := band.Start
	if found {
		next = highest + 1
	}
	for {
		taken, err := a.src.NumberTaken(ctx, band.Format(next))
		if err != nil {
			return Allocation{}, err
		}
		if !taken {
			break
		}
		next++
	}
	return Allocation{Number: band.Format(next), Band: band}, nil
}

// highest returns the first parseable counter of the band.  Rows arrive
// highest counter first, so only malformed rows are ever read past.
func (a *Allocator) highest(ctx context.Context, band Band) (int, bool, error) {
	for offset := 0; ; offset += numberScanPage {
		page, err := a.src.TopNumbersInBand(ctx, band.Key, band.Prefix, numberScanPage, offset)
		if err != nil {
			return 0, false, err
		}
		for _, s := range page {
			if n, ok := band.Parse(s); ok {
				return n, true, nil
			}
		}
		if len(page) < numberScanPage {
			return 0, false, nil
		}
	}
}

// Preview is Next without the band, for display before a booking exists.
func (a *Allocator) Preview(ctx context.Context, categoryName string) (string, error) {
	alloc, err := a.Next(ctx, categoryName)
	if err != nil {
		return "", err
	}
	return alloc.Number, nil
}
