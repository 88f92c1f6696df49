package cover

import (
	"strings"
	"testing"

	"github.com/abram-kaleb/slidenauli/internal/dialect"
)

func rulesFor(t *testing.T, id string) *dialect.CoverRules {
	t.Helper()
	d, ok := dialect.Default().Get(id)
	if !ok {
		t.Fatalf("dialect %q not registered", id)
	}
	return &d.Cover
}

func TestExtract_GeneralLiteralCase(t *testing.T) {
	lines := []string{"MINGGU ADVENT I", "13 NOVEMBER 2024", "TOPIK: Kasih Allah"}
	info := Extract(lines, rulesFor(t, "indo"))

	if !strings.Contains(info.WeekName, "ADVENT I") {
		t.Errorf("expected week name to contain %q, got %q", "ADVENT I", info.WeekName)
	}
	if info.Date != "13 NOVEMBER 2024" {
		t.Errorf("expected date %q, got %q", "13 NOVEMBER 2024", info.Date)
	}
	if !strings.EqualFold(info.Topic, "Kasih Allah") {
		t.Errorf("expected topic %q, got %q", "Kasih Allah", info.Topic)
	}
	if info.Topic != "KASIH ALLAH" {
		t.Errorf("expected upper-cased topic, got %q", info.Topic)
	}
}

func TestExtract_GeneralVariants(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  Info
	}{
		{
			name:  "weekday prefix kept in date",
			lines: []string{"Minggu, 3 Maret 2024", "MINGGU OKULI"},
			want:  Info{WeekName: "MINGGU OKULI", Date: "Minggu, 3 Maret 2024"},
		},
		{
			name:  "speaker tag stripped",
			lines: []string{"L: Minggu II Setelah Trinitatis"},
			want:  Info{WeekName: "MINGGU II SETELAH TRINITATIS"},
		},
		{
			name:  "boilerplate reduced to week fragment",
			lines: []string{"TATA IBADAH MINGGU JUDIKA"},
			want:  Info{WeekName: "MINGGU JUDIKA"},
		},
		{
			name:  "topic on next line",
			lines: []string{"TOPIK", "Hidup dalam kasih"},
			want:  Info{Topic: "HIDUP DALAM KASIH"},
		},
		{
			name:  "quoted topic fallback",
			lines: []string{"MINGGU EXAUDI", "“Tuhan adalah gembalaku”"},
			want:  Info{WeekName: "MINGGU EXAUDI", Topic: "TUHAN ADALAH GEMBALAKU"},
		},
		{
			name:  "last week name wins",
			lines: []string{"MINGGU ADVENT I", "MINGGU ADVENT II"},
			want:  Info{WeekName: "MINGGU ADVENT II"},
		},
		{
			name:  "long line is not a week name",
			lines: []string{"Pada minggu advent ini kita semua diajak untuk merenungkan kedatangan Tuhan kembali"},
			want:  Info{},
		},
		{
			name:  "nothing found",
			lines: []string{"Selamat datang"},
			want:  Info{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.lines, rulesFor(t, "indo"))
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestExtract_YouthRejectsShortQuotes(t *testing.T) {
	rules := rulesFor(t, "remaja")

	got := Extract([]string{"Bacaan \"Yoh 3:16\""}, rules)
	if got.Topic != "" {
		t.Errorf("expected short quote to be rejected, got %q", got.Topic)
	}

	got = Extract([]string{"\"Minggu Paskah yang mulia\""}, rules)
	if got.Topic != "" {
		t.Errorf("expected quote with week keyword to be rejected, got %q", got.Topic)
	}

	got = Extract([]string{"\"Bersukacitalah senantiasa\""}, rules)
	if got.Topic != "BERSUKACITALAH SENANTIASA" {
		t.Errorf("expected quote topic, got %q", got.Topic)
	}
}

func TestExtract_YouthTopicNextLineFilter(t *testing.T) {
	rules := rulesFor(t, "remaja")
	got := Extract([]string{"TOPIK:", "HURIA KRISTEN BATAK"}, rules)
	if got.Topic != "" {
		t.Errorf("expected HURIA line to be rejected, got %q", got.Topic)
	}
	got = Extract([]string{"TOPIK:", "Terang Dunia"}, rules)
	if got.Topic != "TERANG DUNIA" {
		t.Errorf("expected next line topic, got %q", got.Topic)
	}
}

func TestExtract_GeneralColonOwnsTopic(t *testing.T) {
	rules := rulesFor(t, "indo")
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{"empty after colon", []string{"TOPIK:", "Hidup dalam kasih"}, ""},
		{"text after colon", []string{"TOPIK: Terang", "Hidup dalam kasih"}, "TERANG"},
		{"next line overwrites", []string{"TOPIK: Terang", "TOPIK", "Hidup dalam kasih"}, "HIDUP DALAM KASIH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.lines, rules)
			if got.Topic != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got.Topic)
			}
		})
	}
}

func TestExtract_YouthRemovesBoilerplateAnywhere(t *testing.T) {
	got := Extract([]string{"U: Minggu Remaja Tata Ibadah"}, rulesFor(t, "remaja"))
	if got.WeekName != "MINGGU REMAJA" {
		t.Errorf("expected %q, got %q", "MINGGU REMAJA", got.WeekName)
	}
}

func TestExtract_Heading(t *testing.T) {
	lines := []string{
		"TATA TERTIB Kebaktian Sekolah Minggu",
		"Minggu Kantate 28 April 2024",
		"PRELIDIUM",
	}
	got := Extract(lines, rulesFor(t, "skm"))
	want := Info{
		WeekName: "MINGGU KANTATE",
		Topic:    "KEBAKTIAN SEKOLAH MINGGU",
		Date:     "28 APRIL 2024",
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestExtract_HeadingShortWeekLine(t *testing.T) {
	lines := []string{"Ibadah Anak", "Minggu Rogate", "5 Mei 2024"}
	got := Extract(lines, rulesFor(t, "skm"))
	if got.Topic != "" {
		t.Errorf("expected no topic, got %q", got.Topic)
	}
	if got.WeekName != "MINGGU ROGATE" {
		t.Errorf("expected week name %q, got %q", "MINGGU ROGATE", got.WeekName)
	}
	if got.Date != "5 MEI 2024" {
		t.Errorf("expected date %q, got %q", "5 MEI 2024", got.Date)
	}
}

func TestInfo_Empty(t *testing.T) {
	if !(Info{}).Empty() {
		t.Error("expected zero Info to be empty")
	}
	if (Info{Date: "1 MEI 2024"}).Empty() {
		t.Error("expected Info with date not to be empty")
	}
}
