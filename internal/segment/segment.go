// Package segment partitions the normalized lines of a service order into
// numbered, titled sections.
//
// One state machine serves every dialect. It has two states, no open
// section and in section, and the in-section state carries a choir flag.
// Everything that differs between congregations is read from
// dialect.SegmentRules.
package segment

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/abram-kaleb/slidenauli/internal/dialect"
)

// Section is one liturgical element of the service.
type Section struct {
	Number int      `json:"number"`
	Title  string   `json:"title"`
	Body   []string `json:"body"`
}

// builder is a section still accepting lines.
type builder struct {
	number int
	header []string
	body   []string
	choir  bool
	// raw holds every input line consumed by this section, in order.
	raw []string
}

func (b *builder) section() Section {
	return Section{
		Number: b.number,
		Title:  strings.Join(strings.Fields(strings.Join(b.header, " ")), " "),
		Body:   b.body,
	}
}

type machine struct {
	rules   *dialect.SegmentRules
	done    []*builder
	cur     *builder
	counter int
	started bool
}

// Segment runs the state machine over lines. Lines before the first
// heading are discarded. Output is sorted by number when the dialect asks
// for it and otherwise kept in discovery order.
func Segment(lines []string, rules *dialect.SegmentRules) []Section {
	built := run(lines, rules)
	out := make([]Section, len(built))
	for i, b := range built {
		out[i] = b.section()
	}
	if rules.SortByNumber {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	}
	return out
}

func run(lines []string, rules *dialect.SegmentRules) []*builder {
	m := &machine{
		rules:   rules,
		counter: 1,
		started: len(rules.StartMarkers) == 0,
	}
	for _, line := range lines {
		m.step(line)
	}
	m.close()
	return m.done
}

func (m *machine) step(text string) {
	r := m.rules
	compact := dialect.Compact(text)

	if !m.started {
		if !containsAny(compact, r.StartMarkers) {
			return
		}
		m.started = true
	}

	num := r.NumberRe().FindStringSubmatch(text)
	keyword := r.StartsWithHeading(compact)
	if keyword && num == nil {
		if r.Suppressed(text) || (r.LongLineLimit > 0 && utf8.RuneCountInString(text) > r.LongLineLimit) {
			keyword = false
		}
	}
	prelude := m.cur == nil && num == nil && !keyword && containsAny(compact, r.PreludeSongMarkers)

	switch {
	case num != nil || keyword || prelude:
		m.openHeading(text, num)
	case m.cur == nil:
		// Preamble before the first heading carries no section.
	case m.cur.choir:
		m.stepChoir(text)
	case m.forcedBreak(text, compact):
		m.openPlain(text)
	default:
		m.cur.body = append(m.cur.body, text)
		m.cur.raw = append(m.cur.raw, text)
	}
}

func (m *machine) openHeading(text string, num []string) {
	var number int
	var head string
	if num != nil {
		number, _ = strconv.Atoi(num[1])
		head = strings.TrimSpace(num[2])
		if head == "" {
			head = text
		}
		m.counter = number + 1
	} else {
		number = m.counter
		head = text
		m.counter++
	}
	head = m.rules.TrimHead(head)

	choir := false
	if re := m.rules.ChoirRe(); re != nil {
		choir = re.MatchString(text)
	}
	m.open(&builder{number: number, header: []string{head}, choir: choir, raw: []string{text}})
}

// openPlain starts an auto-numbered section headed by the whole line.
func (m *machine) openPlain(text string) {
	m.open(&builder{number: m.counter, header: []string{text}, raw: []string{text}})
	m.counter++
}

func (m *machine) open(b *builder) {
	m.close()
	m.cur = b
}

func (m *machine) close() {
	if m.cur != nil {
		m.done = append(m.done, m.cur)
		m.cur = nil
	}
}

func (m *machine) stepChoir(text string) {
	r := m.rules
	if m.terminates(text) {
		if r.ChoirTerminatorPolicy == dialect.PolicySplit {
			m.openPlain(text)
			return
		}
		m.cur.choir = false
		m.cur.body = append(m.cur.body, text)
		m.cur.raw = append(m.cur.raw, text)
		return
	}
	if containsAny(strings.ToUpper(text), r.ScheduleMarkers) {
		m.cur.header = append(m.cur.header, text)
	} else {
		m.cur.body = append(m.cur.body, text)
	}
	m.cur.raw = append(m.cur.raw, text)
}

func (m *machine) terminates(text string) bool {
	re := m.rules.TerminatorRe()
	if re == nil || !re.MatchString(text) {
		return false
	}
	limit := m.rules.ChoirTerminatorMaxLen
	return limit == 0 || utf8.RuneCountInString(text) < limit
}

func (m *machine) forcedBreak(text, compact string) bool {
	return containsAny(strings.ToUpper(text), m.rules.ForcedBreakKeywords) ||
		containsAny(compact, m.rules.ForcedBreakCompact)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
