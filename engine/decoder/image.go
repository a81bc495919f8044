package decoder

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// decodeImage sniffs and decodes a single image. Input that is not an image
// container is rejected before the codec runs.
//
// Parameters:
//   - data: encoded image bytes
//
// Returns:
//   - image.Image: the decoded image
//   - string: the MIME type detected from the content
//   - error: an error if the content is not a decodable image
func decodeImage(data []byte) (image.Image, string, error) {
	kind, err := filetype.Match(data)
	if err != nil {
		return nil, "", fmt.Errorf("sniff content: %w", err)
	}
	if kind == filetype.Unknown || !filetype.IsImage(data) {
		return nil, "", fmt.Errorf("content is not an image (detected %q)", kind.MIME.Value)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, kind.MIME.Value, fmt.Errorf("decode %s: %w", kind.MIME.Value, err)
	}
	return img, kind.MIME.Value, nil
}

// MIMEType returns the sniffed content type of data, or "" when unknown.
func MIMEType(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return kind.MIME.Value
}
