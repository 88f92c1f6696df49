package slides

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP   = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsRel = "http://schemas.openxmlformats.org/package/2006/relationships"

	relOfficeDoc = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relCore      = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relApp       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	relMaster    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	relLayout    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	relTheme     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
	relSlide     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relImage     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	relPresProps = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/presProps"
	relViewProps = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/viewProps"
	relTblStyles = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/tableStyles"

	ctMain       = "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"
	ctMaster     = "application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"
	ctLayout     = "application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"
	ctSlide      = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	ctTheme      = "application/vnd.openxmlformats-officedocument.theme+xml"
	ctPresProps  = "application/vnd.openxmlformats-officedocument.presentationml.presProps+xml"
	ctViewProps  = "application/vnd.openxmlformats-officedocument.presentationml.viewProps+xml"
	ctTblStyles  = "application/vnd.openxmlformats-officedocument.presentationml.tableStyles+xml"
	ctCore       = "application/vnd.openxmlformats-package.core-properties+xml"
	ctApp        = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
	ctRels       = "application/vnd.openxmlformats-package.relationships+xml"
	xmlHeader    = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
	nsDecl       = `xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `"`
	groupShape   = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`
	firstSlideID = 256
	slideRelBase = 6 // rId1..rId5 are master, theme and the three property parts
)

var imageTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"emf":  "image/x-emf",
	"wmf":  "image/x-wmf",
}

// Write serializes the deck as a PowerPoint (.pptx) package.
func (d *Deck) Write(w io.Writer) error {
	zw := zip.NewWriter(w)
	parts := []struct {
		name string
		body string
	}{
		{"[Content_Types].xml", d.contentTypes()},
		{"_rels/.rels", rootRels},
		{"docProps/core.xml", d.coreProps()},
		{"docProps/app.xml", d.appProps()},
		{"ppt/presentation.xml", d.presentation()},
		{"ppt/_rels/presentation.xml.rels", d.presentationRels()},
		{"ppt/presProps.xml", presProps},
		{"ppt/viewProps.xml", viewProps},
		{"ppt/tableStyles.xml", tableStyles},
		{"ppt/slideMasters/slideMaster1.xml", slideMaster},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRels},
		{"ppt/slideLayouts/slideLayout1.xml", slideLayout},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRels},
		{"ppt/theme/theme1.xml", theme},
	}
	for _, p := range parts {
		if err := writePart(zw, p.name, []byte(p.body)); err != nil {
			return err
		}
	}

	for i, s := range d.Slides {
		body, rels := d.slideXML(s)
		if err := writePart(zw, fmt.Sprintf("ppt/slides/slide%d.xml", i+1), []byte(body)); err != nil {
			return err
		}
		if err := writePart(zw, fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), []byte(rels)); err != nil {
			return err
		}
	}

	for _, m := range d.order {
		if err := writePart(zw, m.partName(), m.Data); err != nil {
			return err
		}
	}
	return zw.Close()
}

// Bytes returns the serialized package.
func (d *Deck) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the package to path.
func (d *Deck) Save(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writePart(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (m *Media) partName() string {
	return fmt.Sprintf("ppt/media/image%d.%s", m.index, m.Ext)
}

func (d *Deck) contentTypes() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	fmt.Fprintf(&b, `<Default Extension="rels" ContentType="%s"/>`, ctRels)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	seen := map[string]bool{}
	for _, m := range d.order {
		if seen[m.Ext] {
			continue
		}
		seen[m.Ext] = true
		fmt.Fprintf(&b, `<Default Extension="%s" ContentType="%s"/>`, m.Ext, imageTypes[m.Ext])
	}
	override := func(part, ct string) {
		fmt.Fprintf(&b, `<Override PartName="%s" ContentType="%s"/>`, part, ct)
	}
	override("/ppt/presentation.xml", ctMain)
	override("/ppt/slideMasters/slideMaster1.xml", ctMaster)
	override("/ppt/slideLayouts/slideLayout1.xml", ctLayout)
	override("/ppt/theme/theme1.xml", ctTheme)
	override("/ppt/presProps.xml", ctPresProps)
	override("/ppt/viewProps.xml", ctViewProps)
	override("/ppt/tableStyles.xml", ctTblStyles)
	override("/docProps/core.xml", ctCore)
	override("/docProps/app.xml", ctApp)
	for i := range d.Slides {
		override(fmt.Sprintf("/ppt/slides/slide%d.xml", i+1), ctSlide)
	}
	b.WriteString(`</Types>`)
	return b.String()
}

func (d *Deck) presentation() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<p:presentation %s saveSubsetFonts="1">`, nsDecl)
	b.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	if len(d.Slides) > 0 {
		b.WriteString(`<p:sldIdLst>`)
		for i := range d.Slides {
			fmt.Fprintf(&b, `<p:sldId id="%d" r:id="rId%d"/>`, firstSlideID+i, slideRelBase+i)
		}
		b.WriteString(`</p:sldIdLst>`)
	}
	fmt.Fprintf(&b, `<p:sldSz cx="%d" cy="%d"/>`, d.Width, d.Height)
	b.WriteString(`<p:notesSz cx="6858000" cy="9144000"/>`)
	b.WriteString(`</p:presentation>`)
	return b.String()
}

func (d *Deck) presentationRels() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<Relationships xmlns="%s">`, nsRel)
	rel := func(id int, typ, target string) {
		fmt.Fprintf(&b, `<Relationship Id="rId%d" Type="%s" Target="%s"/>`, id, typ, target)
	}
	rel(1, relMaster, "slideMasters/slideMaster1.xml")
	rel(2, relTheme, "theme/theme1.xml")
	rel(3, relPresProps, "presProps.xml")
	rel(4, relViewProps, "viewProps.xml")
	rel(5, relTblStyles, "tableStyles.xml")
	for i := range d.Slides {
		rel(slideRelBase+i, relSlide, fmt.Sprintf("slides/slide%d.xml", i+1))
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func (d *Deck) coreProps() string {
	now := time.Now().UTC().Format(time.RFC3339)
	return xmlHeader +
		`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:dcmitype="http://purl.org/dc/dcmitype/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<dc:title>` + escape(d.Title) + `</dc:title>` +
		`<dc:creator>slidenauli</dc:creator>` +
		`<dcterms:created xsi:type="dcterms:W3CDTF">` + now + `</dcterms:created>` +
		`<dcterms:modified xsi:type="dcterms:W3CDTF">` + now + `</dcterms:modified>` +
		`</cp:coreProperties>`
}

func (d *Deck) appProps() string {
	return xmlHeader +
		`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties" xmlns:vt="http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes">` +
		`<Application>slidenauli</Application>` +
		fmt.Sprintf(`<Slides>%d</Slides>`, len(d.Slides)) +
		`</Properties>`
}

// slideXML renders one slide part and its relationship part.
func (d *Deck) slideXML(s *Slide) (string, string) {
	var b, rels strings.Builder
	rels.WriteString(xmlHeader)
	fmt.Fprintf(&rels, `<Relationships xmlns="%s">`, nsRel)
	fmt.Fprintf(&rels, `<Relationship Id="rId1" Type="%s" Target="../slideLayouts/slideLayout1.xml"/>`, relLayout)

	embeds := map[*Media]string{}
	nextRel := 2

	b.WriteString(xmlHeader)
	fmt.Fprintf(&b, `<p:sld %s>`, nsDecl)
	b.WriteString(`<p:cSld>`)
	if s.Background != "" {
		fmt.Fprintf(&b, `<p:bg><p:bgPr><a:solidFill><a:srgbClr val="%s"/></a:solidFill><a:effectLst/></p:bgPr></p:bg>`, s.Background)
	}
	b.WriteString(`<p:spTree>`)
	b.WriteString(groupShape)

	id := 2
	for _, sh := range s.Shapes {
		switch v := sh.(type) {
		case *Picture:
			rid, ok := embeds[v.Media]
			if !ok {
				rid = fmt.Sprintf("rId%d", nextRel)
				nextRel++
				embeds[v.Media] = rid
				fmt.Fprintf(&rels, `<Relationship Id="%s" Type="%s" Target="../media/image%d.%s"/>`, rid, relImage, v.Media.index, v.Media.Ext)
			}
			writePicture(&b, id, v, rid)
		case *Fill:
			writeFill(&b, id, v)
		case *TextBox:
			writeTextBox(&b, id, v)
		default:
			continue
		}
		id++
	}

	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	rels.WriteString(`</Relationships>`)
	return b.String(), rels.String()
}

func writeXfrm(b *strings.Builder, r Rect) {
	fmt.Fprintf(b, `<a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`, r.X, r.Y, r.W, r.H)
}

func writePicture(b *strings.Builder, id int, p *Picture, rid string) {
	fmt.Fprintf(b, `<p:pic><p:nvPicPr><p:cNvPr id="%d" name="Picture %d"/><p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr/></p:nvPicPr>`, id, id-1)
	fmt.Fprintf(b, `<p:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`, rid)
	b.WriteString(`<p:spPr>`)
	writeXfrm(b, p.Rect)
	b.WriteString(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`)
}

func writeFill(b *strings.Builder, id int, f *Fill) {
	fmt.Fprintf(b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Rectangle %d"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr>`, id, id-1)
	writeXfrm(b, f.Rect)
	b.WriteString(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom>`)
	if f.Alpha > 0 && f.Alpha < 100000 {
		fmt.Fprintf(b, `<a:solidFill><a:srgbClr val="%s"><a:alpha val="%d"/></a:srgbClr></a:solidFill>`, f.Color, f.Alpha)
	} else {
		fmt.Fprintf(b, `<a:solidFill><a:srgbClr val="%s"/></a:solidFill>`, f.Color)
	}
	b.WriteString(`<a:ln><a:noFill/></a:ln></p:spPr></p:sp>`)
}

func writeTextBox(b *strings.Builder, id int, t *TextBox) {
	fmt.Fprintf(b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="TextBox %d"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr><p:spPr>`, id, id-1)
	writeXfrm(b, t.Rect)
	b.WriteString(`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr>`)

	wrap := "none"
	if t.Wrap {
		wrap = "square"
	}
	anchor := t.Anchor
	if anchor == "" {
		anchor = AnchorTop
	}
	align := t.Align
	if align == "" {
		align = AlignCenter
	}
	fmt.Fprintf(b, `<p:txBody><a:bodyPr wrap="%s" rtlCol="0" anchor="%s"/><a:lstStyle/>`, wrap, anchor)
	fmt.Fprintf(b, `<a:p><a:pPr marL="0" indent="0" algn="%s"><a:buNone/></a:pPr>`, align)

	rPr := runProperties(t)
	for i, line := range strings.Split(t.Text, "\n") {
		if i > 0 {
			fmt.Fprintf(b, `<a:br>%s</a:br>`, rPr)
		}
		if line == "" {
			continue
		}
		fmt.Fprintf(b, `<a:r>%s<a:t>%s</a:t></a:r>`, rPr, escape(line))
	}
	fmt.Fprintf(b, `<a:endParaRPr lang="id-ID" sz="%d" dirty="0"/></a:p></p:txBody></p:sp>`, t.Size*100)
}

func runProperties(t *TextBox) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<a:rPr lang="id-ID" sz="%d"`, t.Size*100)
	if t.Bold {
		b.WriteString(` b="1"`)
	} else {
		b.WriteString(` b="0"`)
	}
	b.WriteString(` dirty="0">`)
	color := t.Color
	if color == "" {
		color = Black
	}
	fmt.Fprintf(&b, `<a:solidFill><a:srgbClr val="%s"/></a:solidFill>`, color)
	if t.Font != "" {
		f := escape(t.Font)
		fmt.Fprintf(&b, `<a:latin typeface="%s"/><a:cs typeface="%s"/>`, f, f)
	}
	b.WriteString(`</a:rPr>`)
	return b.String()
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
