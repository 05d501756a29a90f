// Package payload implements the embedded image payload format used on
// both sides of the analysis pipeline: uploads arrive as data URIs and
// annotated images leave as data URIs.
package payload

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	apperrors "go-chart-analyzer/internal/errors"
)

const scheme = "data:"

// Payload is a decoded embedded image: raw bytes plus the declared MIME type.
type Payload struct {
	MIME string
	Data []byte
}

// Parse validates and decodes a data URI of the form
// "data:image/<subtype>;base64,<data>". Only image MIME types are
// accepted, and the decoded bytes must themselves sniff as an image so a
// mislabeled payload fails closed. The check is pure and makes no
// external calls.
func Parse(raw string) (Payload, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, scheme) {
		return Payload{}, apperrors.NewValidationError("payload is not an embedded image (expected a data: URI)", nil)
	}

	rest := raw[len(scheme):]
	meta, encoded, found := strings.Cut(rest, ",")
	if !found {
		return Payload{}, apperrors.NewValidationError("malformed data URI: missing data section", nil)
	}

	declared, b64 := parseMeta(meta)
	if !b64 {
		return Payload{}, apperrors.NewValidationError("malformed data URI: only base64 encoding is supported", nil)
	}
	if !strings.HasPrefix(declared, "image/") {
		return Payload{}, apperrors.NewValidationError(
			fmt.Sprintf("declared MIME type %q is not an image type", declared), nil)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Payload{}, apperrors.NewValidationError("malformed data URI: invalid base64 data", err)
	}
	if len(data) == 0 {
		return Payload{}, apperrors.NewValidationError("embedded image is empty", nil)
	}

	if sniffed := mimetype.Detect(data); !strings.HasPrefix(sniffed.String(), "image/") {
		return Payload{}, apperrors.NewValidationError(
			fmt.Sprintf("payload content is %s, not an image", sniffed.String()), nil)
	}

	return Payload{MIME: declared, Data: data}, nil
}

// FromBytes validates raw image bytes, e.g. an image part returned by the
// model. The bytes must sniff as an image; the declared MIME type is taken
// from the sniff when the caller supplies none.
func FromBytes(declaredMIME string, data []byte) (Payload, error) {
	if len(data) == 0 {
		return Payload{}, apperrors.NewContractError("image payload is empty", nil)
	}
	sniffed := mimetype.Detect(data)
	if !strings.HasPrefix(sniffed.String(), "image/") {
		return Payload{}, apperrors.NewContractError(
			fmt.Sprintf("payload content is %s, not an image", sniffed.String()), nil)
	}
	if declaredMIME == "" {
		declaredMIME = sniffed.String()
	}
	return Payload{MIME: declaredMIME, Data: data}, nil
}

// DataURI re-encodes the payload. Encoding is deterministic: identical
// payloads produce identical strings.
func (p Payload) DataURI() string {
	return scheme + p.MIME + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// parseMeta splits the section between "data:" and the comma into the MIME
// type and an encoding flag. Parameters other than base64 are ignored.
func parseMeta(meta string) (mime string, base64Encoded bool) {
	parts := strings.Split(meta, ";")
	mime = strings.ToLower(strings.TrimSpace(parts[0]))
	for _, p := range parts[1:] {
		if strings.TrimSpace(p) == "base64" {
			base64Encoded = true
		}
	}
	return mime, base64Encoded
}
