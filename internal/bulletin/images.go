package bulletin

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/abram-kaleb/slidenauli/internal/document"
	"github.com/abram-kaleb/slidenauli/internal/slides"
)

const imageMargin = 0.5 // inches

// imageSlides puts every image on its own slide, scaled uniformly to fit
// inside the margin and centered.
func imageSlides(deck *slides.Deck, images []document.Image) {
	margin := slides.Inches(imageMargin)
	boxW := deck.Width - 2*margin
	boxH := deck.Height - 2*margin

	for _, img := range images {
		if len(img.Data) == 0 {
			continue
		}
		data, contentType := img.Data, img.ContentType
		w, h := int64(0), int64(0)

		if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			w, h = int64(cfg.Width), int64(cfg.Height)
			if format == "webp" {
				// Presentation software does not reliably open WebP parts.
				if converted, err := toPNG(data); err == nil {
					data, contentType = converted, "image/png"
				}
			}
		}

		rect := slides.Rect{X: margin, Y: margin, W: boxW, H: boxH}
		if w > 0 && h > 0 {
			rect = fit(w, h, deck.Width, deck.Height, boxW, boxH)
		}
		media := deck.AddMedia(data, contentType)
		if media == nil {
			continue
		}
		deck.AddSlide().AddPicture(rect, media)
	}
}

// fit scales a w×h picture by the smaller of the two box ratios and centers
// it on the canvas.
func fit(w, h, canvasW, canvasH, boxW, boxH int64) slides.Rect {
	ratio := min(float64(boxW)/float64(w), float64(boxH)/float64(h))
	sw := int64(float64(w) * ratio)
	sh := int64(float64(h) * ratio)
	return slides.Rect{X: (canvasW - sw) / 2, Y: (canvasH - sh) / 2, W: sw, H: sh}
}

func toPNG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
