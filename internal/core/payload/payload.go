// Package payload turns a serial number into the string a scannable code
// carries. Rasterising that string is delegated to a port.CodeRenderer.
package payload

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rl1809/serial-registry/internal/port"
)

const DefaultBaseURL = "https://your-domain.com/verify"

var ErrNoRenderer = errors.New("no code renderer configured")

type Encoder struct {
	baseURL  string
	renderer port.CodeRenderer
}

// NewEncoder builds an encoder for the verification URI template
// <baseURL>/<serial>. renderer may be nil when only payload strings are needed.
func NewEncoder(baseURL string, renderer port.CodeRenderer) *Encoder {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Encoder{baseURL: baseURL, renderer: renderer}
}

// Payload returns the verification URI for serial. Serials may carry symbols
// and caller-chosen affixes, so the serial is path-escaped as one segment.
func (e *Encoder) Payload(serialNumber string) string {
	return e.baseURL + "/" + url.PathEscape(serialNumber)
}

func (e *Encoder) Render(serialNumber string) ([]byte, error) {
	if e.renderer == nil {
		return nil, ErrNoRenderer
	}
	img, err := e.renderer.Render(e.Payload(serialNumber))
	if err != nil {
		return nil, fmt.Errorf("render code: %w", err)
	}
	return img, nil
}
