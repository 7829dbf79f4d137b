package client

import (
	"fmt"
	"net/http"
)

// MaxImageSize is the largest photo the backend accepts.
const MaxImageSize = 5 * 1024 * 1024

var allowedImageTypes = map[string]string{
	"image/jpeg": "JPEG",
	"image/png":  "PNG",
	"image/webp": "WEBP",
}

// ValidateImage checks size and format before upload. The format is sniffed
// from the content, not taken from the file name.
func ValidateImage(data []byte) error {
	if len(data) > MaxImageSize {
		return fmt.Errorf("%w: maximum size is 5MB, file is %.1fMB",
			ErrImageTooLarge, float64(len(data))/(1024*1024))
	}

	mediaType := http.DetectContentType(data)
	if _, ok := allowedImageTypes[mediaType]; !ok {
		return fmt.Errorf("%w: %s (allowed: JPEG, PNG, WEBP)", ErrUnsupportedImage, mediaType)
	}

	return nil
}
