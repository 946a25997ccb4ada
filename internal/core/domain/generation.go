package domain

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MinSerialLength = 1
	MaxSerialLength = 32

	// MaxStoredSerialLength bounds prefix, body and suffix together; it is
	// the width of the indexed serial column.
	MaxStoredSerialLength = 191

	uuidLength = 36
)

var ErrInvalidConfig = errors.New("invalid generation config")

type Format string

const (
	FormatUUID         Format = "uuid"
	FormatAlphanumeric Format = "alphanumeric"
	FormatNumeric      Format = "numeric"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatUUID, FormatAlphanumeric, FormatNumeric:
		return f, nil
	case "":
		return FormatUUID, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, s)
	}
}

// GenerationConfig is an immutable value describing one generation request.
// Length and IncludeSymbols are ignored for FormatUUID.
type GenerationConfig struct {
	Format         Format
	Prefix         string
	Suffix         string
	Length         int
	IncludeSymbols bool
	Quantity       int
}

// SerialLength is the byte length of every serial the config produces.
func (c GenerationConfig) SerialLength() int {
	body := c.Length
	if c.Format == FormatUUID {
		body = uuidLength
	}
	return len(c.Prefix) + body + len(c.Suffix)
}

// Validate rejects configurations the formatter would accept but that make no
// sense for a batch: empty bodies, oversized bodies and non-positive quantities.
func (c GenerationConfig) Validate(maxQuantity int) error {
	switch c.Format {
	case FormatUUID:
	case FormatAlphanumeric, FormatNumeric:
		if c.Length < MinSerialLength || c.Length > MaxSerialLength {
			return fmt.Errorf("%w: length %d out of range [%d, %d]",
				ErrInvalidConfig, c.Length, MinSerialLength, MaxSerialLength)
		}
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, c.Format)
	}

	if n := c.SerialLength(); n > MaxStoredSerialLength {
		return fmt.Errorf("%w: serial length %d exceeds stored limit %d",
			ErrInvalidConfig, n, MaxStoredSerialLength)
	}

	if c.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidConfig)
	}
	if maxQuantity > 0 && c.Quantity > maxQuantity {
		return fmt.Errorf("%w: quantity %d exceeds limit %d", ErrInvalidConfig, c.Quantity, maxQuantity)
	}
	return nil
}
