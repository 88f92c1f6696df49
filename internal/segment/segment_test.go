package segment

import (
	"fmt"
	"math/rand"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/abram-kaleb/slidenauli/internal/dialect"
)

func rulesFor(t *testing.T, id string) *dialect.SegmentRules {
	t.Helper()
	d, ok := dialect.Default().Get(id)
	if !ok {
		t.Fatalf("dialect %q not registered", id)
	}
	return &d.Segment
}

func TestSegment_GeneralService(t *testing.T) {
	lines := []string{
		"TATA IBADAH MINGGU ADVENT I",
		"Selamat datang",
		"1. VOTUM - INTROITUS",
		"P: Pertolongan kita adalah dalam nama Tuhan",
		"J: Amin",
		"2. BERNYANYI KJ 3 “Haleluya”",
		"Haleluya, pujilah",
		"Tuhan yang kudus",
		"5. KOOR AMA",
		"PKL 08.00 - 09.00",
		"Ya Tuhan kasihanilah kami",
		"KHOTBAH",
		"Damai sejahtera bagi kamu",
	}
	got := Segment(lines, rulesFor(t, "indo"))
	want := []Section{
		{Number: 1, Title: "VOTUM - INTROITUS", Body: []string{"P: Pertolongan kita adalah dalam nama Tuhan", "J: Amin"}},
		{Number: 2, Title: "BERNYANYI KJ 3 “Haleluya”", Body: []string{"Haleluya, pujilah", "Tuhan yang kudus"}},
		{Number: 5, Title: "KOOR AMA PKL 08.00 - 09.00", Body: []string{"Ya Tuhan kasihanilah kami"}},
		{Number: 6, Title: "KHOTBAH", Body: []string{"Damai sejahtera bagi kamu"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestSegment_ExplicitNumberResetsCounter(t *testing.T) {
	lines := []string{"VOTUM", "7. EPISTEL", "Roma 12:1", "KHOTBAH", "DOA"}
	got := Segment(lines, rulesFor(t, "indo"))
	wantNumbers := []int{1, 7, 8, 9}
	if len(got) != len(wantNumbers) {
		t.Fatalf("expected %d sections, got %d: %+v", len(wantNumbers), len(got), got)
	}
	for i, n := range wantNumbers {
		if got[i].Number != n {
			t.Errorf("section %d: expected number %d, got %d", i, n, got[i].Number)
		}
	}
}

func TestSegment_EmptyHeadFallsBackToLine(t *testing.T) {
	got := Segment([]string{"4.", "isi"}, rulesFor(t, "batak"))
	if len(got) != 1 || got[0].Title != "4." || got[0].Number != 4 {
		t.Errorf("expected section 4 titled %q, got %+v", "4.", got)
	}
}

func TestSegment_ChoirScheduleAccretesToTitle(t *testing.T) {
	for _, id := range []string{"indo", "batak", "remaja", "sore"} {
		t.Run(id, func(t *testing.T) {
			// A bare "08.00 - 09.00" would parse as section 8, so the
			// range carries its clock prefix.
			lines := []string{"3. K O O R NAPOSO", "Pkl 08.00 - 09.00", "Syair lagu"}
			got := Segment(lines, rulesFor(t, id))
			if len(got) != 1 {
				t.Fatalf("expected 1 section, got %+v", got)
			}
			if !strings.Contains(got[0].Title, "08.00 - 09.00") {
				t.Errorf("expected time range in title, got %q", got[0].Title)
			}
			for _, b := range got[0].Body {
				if strings.Contains(b, "08.00 - 09.00") {
					t.Errorf("expected time range not in body, got %q", got[0].Body)
				}
			}
		})
	}
}

func TestSegment_ChoirTerminatorPolicies(t *testing.T) {
	lines := []string{"3. KOOR AMA", "Marilah kita berdoa", "Ama - Ina"}

	split := Segment(lines, rulesFor(t, "indo"))
	wantSplit := []Section{
		{Number: 3, Title: "KOOR AMA"},
		{Number: 4, Title: "Marilah kita berdoa", Body: []string{"Ama - Ina"}},
	}
	if !reflect.DeepEqual(split, wantSplit) {
		t.Errorf("split policy: expected %+v, got %+v", wantSplit, split)
	}

	closed := Segment(lines, rulesFor(t, "remaja"))
	wantClosed := []Section{
		{Number: 3, Title: "KOOR AMA", Body: []string{"Marilah kita berdoa", "Ama - Ina"}},
	}
	if !reflect.DeepEqual(closed, wantClosed) {
		t.Errorf("close policy: expected %+v, got %+v", wantClosed, closed)
	}
}

func TestSegment_YouthTerminatorLengthCap(t *testing.T) {
	long := "Kita berdoa " + strings.Repeat("bersama-sama ", 10)
	lines := []string{"1. KOOR", long}
	got := Segment(lines, rulesFor(t, "remaja"))
	if len(got) != 1 {
		t.Fatalf("expected 1 section, got %+v", got)
	}
	// Too long to terminate, so the dash routes it into the title.
	if !strings.Contains(got[0].Title, "Kita berdoa") {
		t.Errorf("expected long line in title, got %q", got[0].Title)
	}
}

func TestSegment_LongKeywordLineIsBody(t *testing.T) {
	long := "Doa ini kita panjatkan bersama dengan seluruh jemaat yang hadir pada pagi hari ini"
	lines := []string{"1. VOTUM", long}
	got := Segment(lines, rulesFor(t, "indo"))
	if len(got) != 1 || len(got[0].Body) != 1 || got[0].Body[0] != long {
		t.Errorf("expected long line as body, got %+v", got)
	}
}

func TestSegment_CommandmentSuppressor(t *testing.T) {
	lines := []string{"PATIK", "PATIK I: Ahu do Jahowa Debatam", "PATIK II: Unang pangkei goar ni Jahowa"}
	got := Segment(lines, rulesFor(t, "batak"))
	if len(got) != 1 {
		t.Fatalf("expected commandments in one section, got %+v", got)
	}
	if len(got[0].Body) != 2 {
		t.Errorf("expected 2 body lines, got %q", got[0].Body)
	}
}

func TestSegment_ForcedBreak(t *testing.T) {
	lines := []string{"1. EPISTEL", "Yohanes 3:16", "Lalu jemaat Bernyanyi KJ 10", "Bait pertama"}
	got := Segment(lines, rulesFor(t, "indo"))
	// The song line does not start with a keyword, so only the forced
	// break opens a section for it.
	if len(got) != 2 {
		t.Fatalf("expected 2 sections, got %+v", got)
	}
	if got[1].Number != 2 || got[1].Title != "Lalu jemaat Bernyanyi KJ 10" {
		t.Errorf("unexpected forced section %+v", got[1])
	}
	if !reflect.DeepEqual(got[1].Body, []string{"Bait pertama"}) {
		t.Errorf("expected body of forced section, got %q", got[1].Body)
	}

	closed := Segment(lines, rulesFor(t, "batak"))
	if len(closed) != 1 {
		t.Errorf("expected no forced break without the rule, got %+v", closed)
	}
}

func TestSegment_SortOrder(t *testing.T) {
	lines := []string{"3. DOA", "isi", "1. VOTUM", "2. HUKUM"}
	got := Segment(lines, rulesFor(t, "indo"))
	var numbers []int
	for _, s := range got {
		numbers = append(numbers, s.Number)
	}
	if !reflect.DeepEqual(numbers, []int{1, 2, 3}) {
		t.Errorf("expected sorted numbers, got %v", numbers)
	}
}

func TestSegment_ChildrensServiceDiscoveryOrder(t *testing.T) {
	lines := []string{
		"SEKOLAH MINGGU HKBP",
		"1. Ini tidak dihitung",
		"TATA TERTIB KEBAKTIAN",
		"BNSM 12 Yesus Sayang",
		"Yesus sayang semua",
		"3. DOA",
		"Ya Bapa",
		"2. PUJIAN BERNYANYI BNSM 3",
		"Bait satu",
	}
	got := Segment(lines, rulesFor(t, "skm"))
	want := []Section{
		{Number: 1, Title: "BNSM 12 Yesus Sayang", Body: []string{"Yesus sayang semua"}},
		{Number: 3, Title: "DOA", Body: []string{"Ya Bapa"}},
		{Number: 2, Title: "BERNYANYI BNSM 3", Body: []string{"Bait satu"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestSegment_EmptyInput(t *testing.T) {
	if got := Segment(nil, rulesFor(t, "indo")); len(got) != 0 {
		t.Errorf("expected no sections, got %+v", got)
	}
	if got := Segment([]string{"hanya teks biasa"}, rulesFor(t, "indo")); len(got) != 0 {
		t.Errorf("expected preamble to be discarded, got %+v", got)
	}
}

var vocabulary = []string{
	"BERNYANYI KJ 5",
	"DOA",
	"VOTUM",
	"MARENDE BE 20",
	"KOOR AMA",
	"K O O R NAPOSO",
	"PRELIDIUM",
	"PKL 08.00 - 09.00",
	"Ama - Ina",
	"Tuhan memberkati kita",
	"P: Damai sejahtera",
	"U: Amen",
	"J: Amin",
	"Haleluya haleluya",
	"Marilah kita berdoa",
	"PATIK I: Ahu do Jahowa",
}

func randomDocument(rng *rand.Rand) []string {
	n := rng.Intn(40)
	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if rng.Intn(6) == 0 {
			lines = append(lines, fmt.Sprintf("%d. %s", rng.Intn(30)+1, vocabulary[rng.Intn(len(vocabulary))]))
			continue
		}
		lines = append(lines, vocabulary[rng.Intn(len(vocabulary))])
	}
	return lines
}

// Every line after the discarded preamble is consumed by exactly one
// section, and each body is an ordered subsequence of what its section
// consumed.
func TestRun_ConsumesEveryLineOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, d := range dialect.Default().All() {
		for iter := 0; iter < 200; iter++ {
			lines := randomDocument(rng)
			built := run(lines, &d.Segment)

			var consumed []string
			for _, b := range built {
				if !isSubsequence(b.body, b.raw) {
					t.Fatalf("%s: body %q is not a subsequence of %q", d.ID, b.body, b.raw)
				}
				consumed = append(consumed, b.raw...)
			}
			skipped := len(lines) - len(consumed)
			if skipped < 0 {
				t.Fatalf("%s: consumed more lines than input", d.ID)
			}
			if !reflect.DeepEqual(consumed, lines[skipped:]) && !(len(consumed) == 0 && skipped == len(lines)) {
				t.Fatalf("%s: consumed lines %q do not match input suffix %q", d.ID, consumed, lines[skipped:])
			}
		}
	}
}

func TestRun_ExplicitNumbers(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, d := range dialect.Default().All() {
		for iter := 0; iter < 200; iter++ {
			lines := randomDocument(rng)
			built := run(lines, &d.Segment)
			for i, b := range built {
				m := d.Segment.NumberRe().FindStringSubmatch(b.raw[0])
				if m == nil {
					continue
				}
				n, _ := strconv.Atoi(m[1])
				if b.number != n {
					t.Fatalf("%s: expected number %d for %q, got %d", d.ID, n, b.raw[0], b.number)
				}
				if i+1 < len(built) && d.Segment.NumberRe().FindStringSubmatch(built[i+1].raw[0]) == nil {
					if built[i+1].number != n+1 {
						t.Fatalf("%s: expected auto number %d after %q, got %d", d.ID, n+1, b.raw[0], built[i+1].number)
					}
				}
			}
		}
	}
}

func isSubsequence(sub, seq []string) bool {
	j := 0
	for _, s := range seq {
		if j < len(sub) && sub[j] == s {
			j++
		}
	}
	return j == len(sub)
}
