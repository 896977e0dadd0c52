package extract

import (
	"regexp"
	"strconv"

	"github.com/joseph-ayodele/docscan/constants"
)

var reDate = regexp.MustCompile(`\b(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})\b`)

// dateSpan is one date substring of the raw text. A date value is assigned
// to at most one field, however often it repeats.
type dateSpan struct {
	value      string
	start, end int
	year       int
	used       bool
}

// collectDates gathers every well-formed DD/MM/YYYY substring once.
func collectDates(raw string) []*dateSpan {
	var out []*dateSpan
	for _, m := range reDate.FindAllStringSubmatchIndex(raw, -1) {
		day, _ := strconv.Atoi(raw[m[2]:m[3]])
		month, _ := strconv.Atoi(raw[m[4]:m[5]])
		year, _ := strconv.Atoi(raw[m[6]:m[7]])
		if day < 1 || day > 31 || month < 1 || month > 12 || year < 1900 || year > 2099 {
			continue
		}
		out = append(out, &dateSpan{value: raw[m[0]:m[1]], start: m[0], end: m[1], year: year})
	}
	return out
}

// DateRule anchors a date field to keywords. A date qualifies when a keyword
// precedes it with only separators and at most one line break in between, or
// (second pass) when a keyword follows it on the same line within three
// separator characters.
type DateRule struct {
	Field  constants.FieldName
	before *regexp.Regexp
	after  *regexp.Regexp
}

// NewDateRule compiles keywords, a regexp alternation matched case-insensitively.
func NewDateRule(field constants.FieldName, keywords string) DateRule {
	return DateRule{
		Field:  field,
		before: regexp.MustCompile(`(?i)(?:` + keywords + `)[^\p{L}\p{N}\n]*\n?[^\p{L}\p{N}\n]*$`),
		after:  regexp.MustCompile(`(?i)^[^\p{L}\p{N}\n]{0,3}(?:` + keywords + `)`),
	}
}

// Bucket is the year-range fallback for a date field left unassigned by keywords.
type Bucket struct {
	Field    constants.FieldName
	From, To int
	MinDates int // pool must hold at least this many dates
}

const (
	keywordsBirth  = `Date\s+of\s+Birth|Birth\s+Date|D\.?O\.?B|Year\s+of\s+Birth|Birth|जन्म\s*तिथि|जन्म`
	keywordsIssue  = `Date\s+of\s+Issue|Issue\s+Date|Issued\s+On|Issued|Issue|D\.?O\.?I|जारी\s+करने\s+की\s+तिथि|जारी`
	keywordsExpiry = `Date\s+of\s+Expiry|Expiry\s+Date|Expiry|Expires|Valid\s+(?:Till|Until|Upto|Up\s+To|Thru)|Validity(?:\s*\((?:NT|TR)\))?|Valid|D\.?O\.?E|समाप्ति`
)

var (
	birthRule  = NewDateRule(constants.FieldDateOfBirth, keywordsBirth)
	issueRule  = NewDateRule(constants.FieldIssueDate, keywordsIssue)
	expiryRule = NewDateRule(constants.FieldExpiryDate, keywordsExpiry)
)

// Year ranges: birth far past through 2010, issue 2000-2020, expiry 2020 on.
var (
	birthBucket  = Bucket{Field: constants.FieldDateOfBirth, From: 1900, To: 2010, MinDates: 1}
	issueBucket  = Bucket{Field: constants.FieldIssueDate, From: 2000, To: 2020, MinDates: 2}
	expiryBucket = Bucket{Field: constants.FieldExpiryDate, From: 2020, To: 2099, MinDates: 2}
)

const contextWindow = 64

// assignDates fills date fields from the pool: keyword-before for every rule,
// then keyword-after, then year buckets. Each date value is consumed at most once.
func assignDates(raw string, rules []DateRule, buckets []Bucket, out Fields) {
	pool := collectDates(raw)
	if len(pool) == 0 {
		return
	}
	take := func(field constants.FieldName, match func(*dateSpan) bool) {
		if _, done := out[field]; done {
			return
		}
		for _, d := range pool {
			if !d.used && match(d) {
				for _, same := range pool {
					if same.value == d.value {
						same.used = true
					}
				}
				out[field] = d.value
				return
			}
		}
	}

	for _, r := range rules {
		take(r.Field, func(d *dateSpan) bool {
			return r.before.MatchString(raw[max(0, d.start-contextWindow):d.start])
		})
	}
	for _, r := range rules {
		take(r.Field, func(d *dateSpan) bool {
			return r.after.MatchString(raw[d.end:min(len(raw), d.end+contextWindow)])
		})
	}
	for _, b := range buckets {
		if len(pool) < b.MinDates {
			continue
		}
		take(b.Field, func(d *dateSpan) bool {
			return d.year >= b.From && d.year <= b.To
		})
	}
}
