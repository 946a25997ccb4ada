package render

import (
	"bytes"
	"fmt"
	"image/color"
	"net/url"
	"path"

	"github.com/fogleman/gg"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font/basicfont"
)

const (
	captionHeight  = 24
	captionPadding = 8
)

// LabelRenderer draws a printable label: the QR code with the serial number
// written underneath.
type LabelRenderer struct {
	size    int
	level   qrcode.RecoveryLevel
	caption func(payload string) string
}

func NewLabelRenderer(size int) *LabelRenderer {
	if size <= 0 {
		size = DefaultQRSize
	}
	return &LabelRenderer{size: size, level: qrcode.Medium, caption: CaptionFromPayload}
}

func (r *LabelRenderer) Render(payload string) ([]byte, error) {
	qr, err := qrcode.New(payload, r.level)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	dc := gg.NewContext(r.size, r.size+captionHeight)
	dc.SetColor(color.White)
	dc.Clear()
	dc.DrawImage(qr.Image(r.size), 0, 0)

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(color.Black)
	caption := fitCaption(dc, r.caption(payload), float64(r.size-2*captionPadding))
	dc.DrawStringAnchored(caption, float64(r.size)/2, float64(r.size)+captionHeight/2, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode label: %w", err)
	}
	return buf.Bytes(), nil
}

// CaptionFromPayload recovers the serial number from a verification URI. A
// payload that is not a URI is used as is.
func CaptionFromPayload(payload string) string {
	u, err := url.Parse(payload)
	if err != nil || u.Scheme == "" {
		return payload
	}
	serial, err := url.PathUnescape(path.Base(u.EscapedPath()))
	if err != nil {
		return payload
	}
	return serial
}

func fitCaption(dc *gg.Context, s string, maxWidth float64) string {
	if w, _ := dc.MeasureString(s); w <= maxWidth {
		return s
	}
	r := []rune(s)
	for len(r) > 0 {
		r = r[:len(r)-1]
		if w, _ := dc.MeasureString(string(r) + "..."); w <= maxWidth {
			break
		}
	}
	return string(r) + "..."
}
