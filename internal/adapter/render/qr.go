package render

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

const DefaultQRSize = 256

// QRRenderer encodes a payload as a PNG QR code.
type QRRenderer struct {
	size  int
	level qrcode.RecoveryLevel
}

func NewQRRenderer(size int) *QRRenderer {
	if size <= 0 {
		size = DefaultQRSize
	}
	return &QRRenderer{size: size, level: qrcode.Medium}
}

func (r *QRRenderer) Render(payload string) ([]byte, error) {
	png, err := qrcode.Encode(payload, r.level, r.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
