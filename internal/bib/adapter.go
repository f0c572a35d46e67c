package bib

import "fmt"

// RawRecord is one parsed but not yet normalized record from a
// bibliography export. Exactly one of the two shapes is set, matching
// the format the record was parsed from. Downstream consumers never
// inspect the shape; Adapt is the only place that branches on it.
type RawRecord struct {
	BibLaTeX *BibLaTeXRecord
	CSL      *CSLRecord
}

// Parse parses an entire raw export into ordered raw records.
// This is the CPU-bound step and is intended to run off the caller's
// goroutine (see the worker package).
func Parse(raw string, format Format) ([]RawRecord, error) {
	switch format {
	case FormatBibLaTeX:
		return ParseBibLaTeX(raw)
	case FormatCSLJSON:
		return ParseCSLJSON(raw)
	}
	return nil, fmt.Errorf("unrecognized library format: %q", format)
}

// Adapt normalizes one raw record into an Entry. Missing optional
// fields yield zero values; only a missing citation key is an error
// (ErrMissingCitekey), in which case the record should be skipped.
func Adapt(rec RawRecord) (*Entry, error) {
	switch {
	case rec.BibLaTeX != nil:
		return adaptBibLaTeX(rec.BibLaTeX)
	case rec.CSL != nil:
		return adaptCSL(rec.CSL)
	}
	return nil, fmt.Errorf("empty raw record")
}

// AdaptAll normalizes a batch of raw records, skipping records that
// fail to adapt. Returns the entries and the number skipped.
func AdaptAll(records []RawRecord) ([]*Entry, int) {
	entries := make([]*Entry, 0, len(records))
	skipped := 0
	for _, rec := range records {
		entry, err := Adapt(rec)
		if err != nil {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}
	return entries, skipped
}
