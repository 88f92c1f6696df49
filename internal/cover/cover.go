// Package cover extracts the week name, topic and date printed at the top of
// a service-order document.
package cover

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/abram-kaleb/slidenauli/internal/dialect"
)

// Info is the cover metadata. Missing fields are empty strings.
type Info struct {
	WeekName string `json:"week_name"`
	Topic    string `json:"topic"`
	Date     string `json:"date"`
}

// Empty reports whether no field was found.
func (i Info) Empty() bool {
	return i.WeekName == "" && i.Topic == "" && i.Date == ""
}

const serviceBoilerplate = "TATA IBADAH"

var (
	quoteRe      = regexp.MustCompile(`[“"].*?[”"]`)
	weekFragment = regexp.MustCompile(`(?i)MINGGU.*`)
)

// quoteChars is trimmed from both ends of a topic.
const quoteChars = "“” \""

// Extract scans normalized lines using the dialect's cover rules.
func Extract(lines []string, rules *dialect.CoverRules) Info {
	if rules.Strategy == dialect.StrategyHeading {
		return extractHeading(lines, rules)
	}
	return extractLiturgical(lines, rules)
}

func extractLiturgical(lines []string, rules *dialect.CoverRules) Info {
	var info Info
	dateRe := rules.DateRe()
	limit := scanLimit(lines, rules.ScanLimit)

	for i, text := range lines[:limit] {
		upper := strings.ToUpper(text)

		dated := false
		if dateRe != nil {
			if m := dateRe.FindString(text); m != "" {
				info.Date = m
				dated = true
			}
		}

		if !dated && isWeekLine(upper, rules) && wordCount(text) < rules.WeekMaxWords {
			info.WeekName = cleanWeekName(text, rules)
		}

		if rules.TopicMarker != "" && strings.Contains(upper, rules.TopicMarker) {
			_, after, hasColon := strings.Cut(text, ":")
			if rules.ColonExclusive {
				// A colon line owns the topic even when nothing follows it.
				switch {
				case hasColon:
					info.Topic = strings.TrimSpace(after)
				case i+1 < len(lines):
					info.Topic = lines[i+1]
				}
			} else {
				if res := strings.TrimSpace(after); hasColon && utf8.RuneCountInString(res) > rules.ColonMinLen {
					info.Topic = res
				}
				if info.Topic == "" && i+1 < len(lines) {
					next := lines[i+1]
					if utf8.RuneCountInString(next) > rules.NextLineMinLen && !containsAny(strings.ToUpper(next), rules.NextLineReject) {
						info.Topic = next
					}
				}
			}
		}

		if info.Topic == "" && i < rules.QuoteLimit {
			if q := quoteRe.FindString(text); q != "" && acceptQuote(q, rules) {
				info.Topic = q
			}
		}
	}

	info.Topic = strings.ToUpper(strings.Trim(info.Topic, quoteChars))
	if info.WeekName != "" {
		info.WeekName = strings.ToUpper(info.WeekName)
		if strings.Contains(info.WeekName, serviceBoilerplate) {
			info.WeekName = strings.TrimSpace(strings.ReplaceAll(info.WeekName, serviceBoilerplate, ""))
		}
	}
	return info
}

func isWeekLine(upper string, rules *dialect.CoverRules) bool {
	if rules.WeekMarker != "" && strings.Contains(upper, rules.WeekMarker) {
		return true
	}
	return containsAny(upper, rules.WeekKeywords)
}

func cleanWeekName(text string, rules *dialect.CoverRules) string {
	clean := text
	if re := rules.SpeakerRe(); re != nil {
		clean = strings.TrimSpace(re.ReplaceAllString(clean, ""))
	}
	if strings.Contains(strings.ToUpper(clean), serviceBoilerplate) {
		if frag := weekFragment.FindString(clean); frag != "" {
			clean = frag
		}
	}
	return clean
}

func acceptQuote(q string, rules *dialect.CoverRules) bool {
	if rules.QuoteMinLen == 0 && !rules.QuoteRejectKeyword {
		return true
	}
	candidate := strings.Trim(q, quoteChars)
	if utf8.RuneCountInString(candidate) <= rules.QuoteMinLen {
		return false
	}
	if rules.QuoteRejectKeyword && containsAny(strings.ToUpper(candidate), rules.WeekKeywords) {
		return false
	}
	return true
}

// extractHeading reads the topic from a heading on the first line and the
// week name from the line that carries the date.
func extractHeading(lines []string, rules *dialect.CoverRules) Info {
	var info Info
	if len(lines) > 0 && containsAny(strings.ToUpper(lines[0]), rules.HeadingMarkers) {
		info.Topic = lines[0]
	}

	dateRe := rules.DateRe()
	for _, text := range lines[:scanLimit(lines, rules.ScanLimit)] {
		upper := strings.ToUpper(text)
		if dateRe != nil {
			if loc := dateRe.FindStringIndex(text); loc != nil {
				info.Date = text[loc[0]:loc[1]]
				if strings.Contains(upper, rules.WeekMarker) {
					if before := strings.TrimSpace(text[:loc[0]]); before != "" {
						info.WeekName = before
					}
				}
			}
		}
		if info.WeekName == "" && strings.Contains(upper, rules.WeekMarker) && wordCount(text) < rules.WeekMaxWords {
			info.WeekName = text
		}
	}

	if info.Topic != "" && rules.HeadingStrip != "" {
		info.Topic = strings.ReplaceAll(info.Topic, rules.HeadingStrip, "")
	}
	info.Topic = strings.ToUpper(strings.TrimSpace(info.Topic))
	info.WeekName = strings.ToUpper(info.WeekName)
	info.Date = strings.ToUpper(info.Date)
	return info
}

func scanLimit(lines []string, limit int) int {
	if limit <= 0 || limit > len(lines) {
		return len(lines)
	}
	return limit
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func containsAny(upper string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}
