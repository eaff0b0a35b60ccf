package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

const (
	Size    = 320
	quality = 80
)

var ErrUnsupported = errors.New("unsupported content type")

var (
	pdfBackground = color.NRGBA{R: 0xF4, G: 0xF4, B: 0xF5, A: 0xFF}
	pdfBand       = color.NRGBA{R: 0xC6, G: 0x28, B: 0x28, A: 0xFF}
	pdfLine       = color.NRGBA{R: 0xBD, G: 0xBD, B: 0xC2, A: 0xFF}
)

// Generate 產生最大 320px 的 JPEG 縮圖；PDF 以固定樣式的示意圖代替
func Generate(contentType string, content []byte) ([]byte, error) {
	var img image.Image
	switch contentType {
	case "image/png", "image/jpeg":
		src, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("Generate: %w", err)
		}
		img = imaging.Fit(src, Size, Size, imaging.Lanczos)
	case "application/pdf":
		img = pdfPlaceholder()
	default:
		return nil, ErrUnsupported
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("Generate: %w", err)
	}
	return buf.Bytes(), nil
}

// pdfPlaceholder 直式頁面：上方色帶加數條灰線
func pdfPlaceholder() image.Image {
	w, h := Size*3/4, Size
	page := imaging.New(w, h, pdfBackground)
	page = imaging.Paste(page, imaging.New(w, h/6, pdfBand), image.Pt(0, 0))
	line := imaging.New(w-40, 6, pdfLine)
	for y := h/6 + 30; y < h-20; y += 22 {
		page = imaging.Paste(page, line, image.Pt(20, y))
	}
	return page
}
