package bib

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// FlexibleString unmarshals from either a string or a number. CSL-JSON
// exports are loose about which one numeric fields use.
type FlexibleString string

func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexibleString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexibleString(n.String())
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into FlexibleString", string(data))
}

func (f FlexibleString) String() string {
	return string(f)
}

// CSLRecord is one raw item from a CSL-JSON export array.
type CSLRecord struct {
	ID             FlexibleString `json:"id"`
	Title          string         `json:"title"`
	ContainerTitle string         `json:"container-title"`
	DOI            string         `json:"DOI"`
	Abstract       string         `json:"abstract"`
	Issued         CSLDate        `json:"issued"`
	Author         []CSLName      `json:"author"`
}

// CSLName is one CSL author object. Some exporters emit a single
// "literal" name instead of split parts.
type CSLName struct {
	Given   string `json:"given"`
	Family  string `json:"family"`
	Literal string `json:"literal"`
}

// CSLDate is a CSL date object carrying a date-parts array.
type CSLDate struct {
	DateParts [][]FlexibleString `json:"date-parts"`
}

// Year reduces date-parts to a year, 0 if absent or unparseable.
func (d CSLDate) Year() int {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0
	}
	y, err := strconv.Atoi(d.DateParts[0][0].String())
	if err != nil {
		return 0
	}
	return y
}

// ParseCSLJSON parses a CSL-JSON export array into raw records, in
// export order.
func ParseCSLJSON(src string) ([]RawRecord, error) {
	var items []CSLRecord
	if err := json.Unmarshal([]byte(src), &items); err != nil {
		return nil, fmt.Errorf("parsing CSL-JSON: %w", err)
	}

	records := make([]RawRecord, len(items))
	for i := range items {
		records[i] = RawRecord{CSL: &items[i]}
	}
	return records, nil
}

// adaptCSL normalizes one CSL-JSON record into an Entry.
func adaptCSL(rec *CSLRecord) (*Entry, error) {
	citekey := strings.TrimSpace(rec.ID.String())
	if citekey == "" {
		return nil, ErrMissingCitekey
	}

	authors := make([]Author, 0, len(rec.Author))
	for _, a := range rec.Author {
		if a.Literal != "" && a.Given == "" && a.Family == "" {
			given, family := splitName(a.Literal)
			authors = append(authors, Author{Given: given, Family: family})
			continue
		}
		authors = append(authors, Author{Given: a.Given, Family: a.Family})
	}

	return &Entry{
		Citekey:  citekey,
		Format:   FormatCSLJSON,
		Title:    rec.Title,
		Authors:  authors,
		Year:     rec.Issued.Year(),
		Venue:    rec.ContainerTitle,
		DOI:      rec.DOI,
		Abstract: rec.Abstract,
	}, nil
}
