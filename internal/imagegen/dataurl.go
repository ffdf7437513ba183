package imagegen

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"tennis-transform/internal/domain"
)

// DefaultMaxImageBytes bounds decoded uploads when no limit is configured.
const DefaultMaxImageBytes = 10 << 20

var formatMIME = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// DecodeDataURL turns a `data:<mime>;base64,<payload>` string into an
// UploadedImage. A bare base64 payload is accepted too. The real format is
// sniffed from the bytes and wins over the declared MIME type.
func DecodeDataURL(encoded string, maxBytes int) (domain.UploadedImage, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return domain.UploadedImage{}, domain.NewError(domain.ErrInvalidInput, "No image provided", nil)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	declared, payload, err := splitDataURL(encoded)
	if err != nil {
		return domain.UploadedImage{}, domain.NewError(domain.ErrInvalidInput, err.Error(), err)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > maxBytes+3 {
		return domain.UploadedImage{}, domain.NewError(domain.ErrInvalidInput,
			fmt.Sprintf("image exceeds maximum size of %d bytes", maxBytes), nil)
	}
	data, err := decodeBase64(payload)
	if err != nil {
		return domain.UploadedImage{}, domain.NewError(domain.ErrInvalidInput, "image payload is not valid base64", err)
	}
	if len(data) == 0 {
		return domain.UploadedImage{}, domain.NewError(domain.ErrInvalidInput, "No image provided", nil)
	}
	if len(data) > maxBytes {
		return domain.UploadedImage{}, domain.NewError(domain.ErrInvalidInput,
			fmt.Sprintf("image exceeds maximum size of %d bytes", maxBytes), nil)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return domain.UploadedImage{}, domain.NewError(domain.ErrInvalidInput, "unsupported or corrupt image", err)
	}
	mime, ok := formatMIME[format]
	if !ok {
		mime = declared
	}
	return domain.UploadedImage{Data: data, MIME: mime}, nil
}

// EncodeDataURL is the inverse of DecodeDataURL.
func EncodeDataURL(img domain.UploadedImage) string {
	mime := img.MIME
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

func splitDataURL(s string) (string, string, error) {
	if !strings.HasPrefix(strings.ToLower(s), "data:") {
		return "", s, nil
	}
	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return "", "", fmt.Errorf("malformed data url")
	}
	meta := s[len("data:"):comma]
	parts := strings.Split(meta, ";")
	isBase64 := false
	for _, p := range parts[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}
	if !isBase64 {
		return "", "", fmt.Errorf("data url must be base64 encoded")
	}
	mime := strings.ToLower(strings.TrimSpace(parts[0]))
	if mime != "" && !strings.HasPrefix(mime, "image/") {
		return "", "", fmt.Errorf("unsupported content type %q", mime)
	}
	return mime, s[comma+1:], nil
}

func decodeBase64(payload string) ([]byte, error) {
	payload = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, payload)
	if data, err := base64.StdEncoding.DecodeString(payload); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
}
