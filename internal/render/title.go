package render

import (
	"regexp"
	"strings"

	"github.com/abram-kaleb/slidenauli/internal/dialect"
)

// Song title layouts.
const (
	layoutLabelDetail = "label_detail" // "label\nreference"
	layoutStacked     = "stacked"      // one capture group per line
	layoutPaired      = "paired"       // "label reference\nquoted title"
)

const choirLabel = "KOOR"

var (
	choirLead = regexp.MustCompile(`(?i)^K\s*O\s*O\s*R`)
	spaceRun  = regexp.MustCompile(`\s+`)
)

// FormatTitle rewrites a section title for display. Closing prayers collapse
// to a canonical string, a trailing colon is dropped, structured hymn
// headings are split across lines and multi-performer choir headings get one
// line per performer.
func FormatTitle(text string, rules *dialect.RenderRules) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if rules.ClosingTrigger != "" && strings.Contains(strings.ToUpper(text), rules.ClosingTrigger) {
		return rules.ClosingTitle
	}
	if strings.HasSuffix(text, ":") {
		text = strings.TrimSpace(strings.TrimSuffix(text, ":"))
	}

	compact := dialect.Compact(text)
	if song, ok := formatSong(text, compact, &rules.SongTitle); ok {
		return song
	}
	if strings.Contains(compact, choirLabel) && strings.Contains(text, "-") {
		if choir := formatChoir(text); choir != "" {
			return choir
		}
	}
	return text
}

func formatSong(text, compact string, st *dialect.SongTitle) (string, bool) {
	re := st.PatternRe()
	if re == nil || !containsAny(compact, st.Triggers) {
		return "", false
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}

	switch st.Layout {
	case layoutStacked:
		return strings.Join(m[1:], "\n"), true
	case layoutPaired:
		if len(m) < 4 {
			return "", false
		}
		return m[1] + " " + m[2] + "\n" + m[3], true
	default:
		if len(m) < 3 {
			return "", false
		}
		label := strings.TrimSpace(m[1])
		detail := strings.TrimSpace(m[2])
		if cut := st.DetailCutRe(); cut != nil {
			detail = strings.TrimSpace(cut.Split(detail, 2)[0])
		}
		detail = spaceRun.ReplaceAllString(detail, " ")
		if label == "" {
			label = st.DefaultLabel
		}
		return label + "\n" + detail, true
	}
}

// formatChoir splits "KOOR: Ama - Ina" into "KOOR - Ama\nKOOR - Ina". The
// shared label is the text before the first colon, or KOOR when the heading
// has none.
func formatChoir(text string) string {
	label, hasColon := choirLabel, false
	if i := strings.Index(text, ":"); i > 0 {
		label, hasColon = strings.TrimSpace(text[:i]), true
	}

	var lines []string
	for _, part := range strings.Split(text, "-") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if hasColon {
			if len(part) >= len(label) && strings.EqualFold(part[:len(label)], label) {
				part = part[len(label):]
			}
		} else {
			part = choirLead.ReplaceAllString(part, "")
		}
		part = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(part), ":"))
		if part != "" {
			lines = append(lines, label+" - "+part)
		}
	}
	return strings.Join(lines, "\n")
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
