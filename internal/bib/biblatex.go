package bib

import (
	"strconv"
	"strings"
	"unicode"
)

// BibLaTeXRecord is one raw @entry parsed from BibLaTeX source.
type BibLaTeXRecord struct {
	Type   string            // Entry type: article, book, ...
	Key    string            // Citation key, "" if the entry has none
	Fields map[string]string // Lowercased field name -> cleaned value
}

// ParseBibLaTeX parses BibLaTeX source text into raw records, in source
// order. @comment, @preamble and @string blocks are skipped. The parser
// is tolerant: a malformed entry ends at its closing brace and parsing
// continues with the next @.
func ParseBibLaTeX(src string) ([]RawRecord, error) {
	var records []RawRecord
	p := &biblatexParser{src: src}

	for {
		if !p.seekTo('@') {
			break
		}
		p.pos++ // consume '@'

		entryType := strings.ToLower(p.readIdent())
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != '{' {
			continue
		}
		p.pos++ // consume '{'

		switch entryType {
		case "comment", "preamble", "string":
			p.skipBalanced()
			continue
		}

		rec := &BibLaTeXRecord{Type: entryType, Fields: make(map[string]string)}
		rec.Key = p.readKey()
		p.readFields(rec)
		records = append(records, RawRecord{BibLaTeX: rec})
	}

	return records, nil
}

type biblatexParser struct {
	src string
	pos int
}

// seekTo advances to the next occurrence of c, returning false at EOF.
func (p *biblatexParser) seekTo(c byte) bool {
	idx := strings.IndexByte(p.src[p.pos:], c)
	if idx < 0 {
		p.pos = len(p.src)
		return false
	}
	p.pos += idx
	return true
}

func (p *biblatexParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

// readIdent reads an entry-type or field-name identifier.
func (p *biblatexParser) readIdent() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '{' || c == '=' || c == ',' || c == '}' || unicode.IsSpace(rune(c)) {
			break
		}
		p.pos++
	}
	return strings.TrimSpace(p.src[start:p.pos])
}

// readKey reads the citation key after the opening brace. If the first
// token is followed by '=' it is a field name, not a key: the position
// is rewound and "" is returned so the entry is parsed as keyless.
func (p *biblatexParser) readKey() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == ',' || c == '}' || c == '=' || c == '\n' {
			break
		}
		p.pos++
	}
	token := strings.TrimSpace(p.src[start:p.pos])
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '=' {
		p.pos = start
		return ""
	}
	if p.pos < len(p.src) && p.src[p.pos] == ',' {
		p.pos++
	}
	return token
}

// readFields reads "name = value" pairs until the entry's closing brace.
func (p *biblatexParser) readFields(rec *BibLaTeXRecord) {
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return
		}
		switch p.src[p.pos] {
		case '}':
			p.pos++
			return
		case ',':
			p.pos++
			continue
		}

		name := strings.ToLower(p.readIdent())
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != '=' {
			// Malformed; resync at the next separator.
			for p.pos < len(p.src) && p.src[p.pos] != ',' && p.src[p.pos] != '}' {
				p.pos++
			}
			continue
		}
		p.pos++ // consume '='
		value := p.readValue()
		if name != "" {
			rec.Fields[name] = cleanFieldValue(value)
		}
	}
}

// readValue reads a field value: {braced}, "quoted", or bare.
func (p *biblatexParser) readValue() string {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return ""
	}
	switch p.src[p.pos] {
	case '{':
		p.pos++
		return p.readBalanced()
	case '"':
		p.pos++
		start := p.pos
		depth := 0
		for p.pos < len(p.src) {
			switch p.src[p.pos] {
			case '{':
				depth++
			case '}':
				depth--
			case '"':
				if depth == 0 {
					v := p.src[start:p.pos]
					p.pos++
					return v
				}
			}
			p.pos++
		}
		return p.src[start:]
	default:
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] != ',' && p.src[p.pos] != '}' && p.src[p.pos] != '\n' {
			p.pos++
		}
		return strings.TrimSpace(p.src[start:p.pos])
	}
}

// readBalanced reads until the brace that closes the already-consumed
// opening brace, returning the contents.
func (p *biblatexParser) readBalanced() string {
	start := p.pos
	depth := 1
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				v := p.src[start:p.pos]
				p.pos++
				return v
			}
		}
		p.pos++
	}
	return p.src[start:]
}

// skipBalanced consumes a balanced brace block whose opening brace has
// already been consumed.
func (p *biblatexParser) skipBalanced() {
	depth := 1
	for p.pos < len(p.src) && depth > 0 {
		switch p.src[p.pos] {
		case '{':
			depth++
		case '}':
			depth--
		}
		p.pos++
	}
}

// cleanFieldValue strips case-protection braces and collapses the
// whitespace that BibLaTeX treats as insignificant.
func cleanFieldValue(v string) string {
	v = strings.Map(func(r rune) rune {
		if r == '{' || r == '}' {
			return -1
		}
		return r
	}, v)
	return strings.Join(strings.Fields(v), " ")
}

// adaptBibLaTeX normalizes one BibLaTeX record into an Entry.
func adaptBibLaTeX(rec *BibLaTeXRecord) (*Entry, error) {
	if rec.Key == "" {
		return nil, ErrMissingCitekey
	}

	entry := &Entry{
		Citekey:  rec.Key,
		Format:   FormatBibLaTeX,
		Title:    rec.Fields["title"],
		Venue:    biblatexVenue(rec.Fields),
		DOI:      rec.Fields["doi"],
		Abstract: rec.Fields["abstract"],
		Year:     biblatexYear(rec.Fields),
		Authors:  parseNameList(rec.Fields["author"]),
	}
	if file := rec.Fields["file"]; file != "" {
		entry.AttachmentPaths = parseFileField(file)
	}
	return entry, nil
}

func biblatexVenue(fields map[string]string) string {
	for _, name := range []string{"journaltitle", "journal", "booktitle"} {
		if v := fields[name]; v != "" {
			return v
		}
	}
	return ""
}

// biblatexYear extracts a year from the date field (ISO prefix) or the
// legacy year field.
func biblatexYear(fields map[string]string) int {
	if date := fields["date"]; date != "" {
		year := date
		if idx := strings.IndexByte(date, '-'); idx > 0 {
			year = date[:idx]
		}
		if y, err := strconv.Atoi(strings.TrimSpace(year)); err == nil {
			return y
		}
	}
	if y, err := strconv.Atoi(strings.TrimSpace(fields["year"])); err == nil {
		return y
	}
	return 0
}

// parseNameList splits a BibLaTeX author field on " and " and each name
// into given/family parts.
func parseNameList(field string) []Author {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}
	parts := strings.Split(field, " and ")
	authors := make([]Author, 0, len(parts))
	for _, name := range parts {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if idx := strings.Index(name, ","); idx >= 0 {
			// "Family, Given" form
			authors = append(authors, Author{
				Family: strings.TrimSpace(name[:idx]),
				Given:  strings.TrimSpace(name[idx+1:]),
			})
			continue
		}
		given, family := splitName(name)
		authors = append(authors, Author{Given: given, Family: family})
	}
	return authors
}

// Common name suffixes kept with the family name by splitName.
var nameSuffixes = map[string]bool{
	"jr": true, "jr.": true,
	"sr": true, "sr.": true,
	"ii": true, "iii": true, "iv": true,
}

// splitName splits a "Given Family" name. Suffixes (Jr, III, ...) stay
// with the family name. Multi-part surnames split incorrectly, as they
// do everywhere without a name authority.
func splitName(name string) (given, family string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	}
	last := strings.ToLower(parts[len(parts)-1])
	if nameSuffixes[last] && len(parts) > 2 {
		family = parts[len(parts)-2] + " " + parts[len(parts)-1]
		given = strings.Join(parts[:len(parts)-2], " ")
		return given, family
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}

// parseFileField splits a Zotero-style file field: attachments are
// separated by ';', each either a plain path or "desc:path:mimetype".
func parseFileField(field string) []string {
	var paths []string
	for _, part := range strings.Split(field, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		segs := strings.Split(part, ":")
		if len(segs) >= 3 {
			part = strings.Join(segs[1:len(segs)-1], ":")
		}
		if part != "" {
			paths = append(paths, part)
		}
	}
	return paths
}
