package book

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDataURL is returned when a cover data URL cannot be decoded.
var ErrInvalidDataURL = errors.New("invalid data URL")

// Cover is an embedded cover image.
type Cover struct {
	Data      []byte
	MediaType string
}

// Valid reports whether both the image bytes and the MIME type are present.
// A cover with only one of them is ignored by exporters.
func (c *Cover) Valid() bool {
	return c != nil && len(c.Data) > 0 && c.MediaType != ""
}

// Extension derives a file extension from the MIME subtype, e.g. "image/png"
// gives "png" and "image/svg+xml" gives "svg". Types without a subtype fall
// back to "jpg".
func (c *Cover) Extension() string {
	if c == nil {
		return "jpg"
	}
	_, sub, ok := strings.Cut(c.MediaType, "/")
	if !ok {
		return "jpg"
	}
	sub, _, _ = strings.Cut(sub, "+")
	sub, _, _ = strings.Cut(sub, ";")
	sub = strings.ToLower(strings.TrimSpace(sub))
	if sub == "" {
		return "jpg"
	}
	return sub
}

// DataURL encodes the cover as a base64 data URL.
func (c *Cover) DataURL() string {
	if !c.Valid() {
		return ""
	}
	return "data:" + c.MediaType + ";base64," + base64.StdEncoding.EncodeToString(c.Data)
}

// ParseDataURL decodes a "data:<mime>;base64,<payload>" string.
func ParseDataURL(s string) (*Cover, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "data:")
	if !ok {
		return nil, fmt.Errorf("%w: missing data: scheme", ErrInvalidDataURL)
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing payload separator", ErrInvalidDataURL)
	}
	mediaType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return nil, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURL)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return &Cover{Data: data, MediaType: mediaType}, nil
}

// MarshalJSON stores the cover as a data URL string.
func (c *Cover) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(c.DataURL())
}

// UnmarshalJSON accepts a data URL string or null.
func (c *Cover) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("cover: %w", err)
	}
	if s == "" {
		*c = Cover{}
		return nil
	}
	parsed, err := ParseDataURL(s)
	if err != nil {
		return err
	}
	*c = *parsed
	return nil
}
