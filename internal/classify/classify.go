// Package classify guesses which kind of document an upload is and warns
// about documents placed in the wrong slot.
package classify

import (
	"strings"

	"github.com/abram-kaleb/slidenauli/internal/bulletin"
)

// Category is a detected document kind. Service-order categories carry the
// same label as their dialect.
type Category string

const (
	Unknown         Category = "Unknown"
	BulletinGeneral Category = "Warta Jemaat"
	BulletinYouth   Category = "Warta Remaja"
	Children        Category = "Sekolah Minggu (SKM)"
	Evening         Category = "Ibadah Sore"
	Youth           Category = "Ibadah Remaja"
	Batak           Category = "Ibadah Batak Umum"
	General         Category = "Ibadah Indonesia Umum"
)

// ScanLines is how many leading lines the classifier reads.
const ScanLines = 40

// DefaultDialect is used when the category names no dialect.
const DefaultDialect = "indo"

var dialectIDs = map[Category]string{
	Children: "skm",
	Evening:  "sore",
	Youth:    "remaja",
	Batak:    "batak",
	General:  "indo",
}

// IsBulletin reports whether c is one of the bulletin categories.
func (c Category) IsBulletin() bool {
	return c == BulletinGeneral || c == BulletinYouth
}

// Dialect returns the dialect ID for a service-order category, or
// DefaultDialect for bulletins and unknown documents.
func (c Category) Dialect() string {
	if id, ok := dialectIDs[c]; ok {
		return id
	}
	return DefaultDialect
}

type rule struct {
	category Category
	needles  []string
}

// Checked in order; the first rule with a matching needle wins.
var rules = []rule{
	{Children, []string{"sekolah minggu", "skm"}},
	{Evening, []string{"sore", "pukul 17", "pukul 18"}},
	{Youth, []string{"remaja", "naposobulung"}},
	{Batak, []string{"agenda", "parmingguon", "pukul 07", "pukul 09"}},
	{General, []string{"tata ibadah", "pukul 10"}},
}

var youthMarkers = []string{"remaja", "naposobulung"}

// Classify inspects the first ScanLines lines with case-insensitive
// substring checks. A bulletin marker outranks every service-order marker.
func Classify(lines []string) Category {
	if len(lines) > ScanLines {
		lines = lines[:ScanLines]
	}
	text := strings.ToLower(strings.Join(lines, "\n"))

	if strings.Contains(text, "warta") {
		if containsAny(text, youthMarkers) {
			return BulletinYouth
		}
		return BulletinGeneral
	}
	for _, r := range rules {
		if containsAny(text, r.needles) {
			return r.category
		}
	}
	return Unknown
}

// Level is the severity of an advisory.
type Level string

const (
	Info    Level = "info"
	Warning Level = "warning"
	Error   Level = "error"
)

// Advisory is a user-visible note about an upload. Advisories never stop
// processing.
type Advisory struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Advise checks the detected categories of the service-order upload and the
// bulletin upload (empty when not uploaded) and picks the bulletin layout.
// The wide layout is used only for a youth service with a youth bulletin.
func Advise(service, bull Category) ([]Advisory, bulletin.Layout) {
	var out []Advisory
	layout := bulletin.Normal

	if service != "" {
		switch {
		case service.IsBulletin():
			out = append(out, Advisory{Error, "Terdeteksi " + string(service) + ". Mohon upload di kolom Warta."})
		case service == Children:
			out = append(out, Advisory{Warning, "Terdeteksi: " + string(service) + ". Fitur ini masih dalam pengembangan."})
		default:
			out = append(out, Advisory{Info, "Terdeteksi: " + string(service)})
		}
	}

	if bull != "" {
		if !bull.IsBulletin() {
			out = append(out, Advisory{Error, "Terdeteksi " + string(bull) + ". Ini bukan file Warta."})
		} else {
			out = append(out, Advisory{Info, "Terdeteksi: " + string(bull)})
		}
	}

	if service != "" && bull != "" {
		switch {
		case service == Youth && bull == BulletinYouth:
			layout = bulletin.Wide
		case service == Youth:
			out = append(out, Advisory{Warning, "Tata Ibadah Remaja harusnya menggunakan Warta Remaja."})
		case bull == BulletinYouth:
			out = append(out, Advisory{Error, "Warta Remaja seharusnya digunakan untuk Tata Ibadah Remaja."})
		}
	}
	return out, layout
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
