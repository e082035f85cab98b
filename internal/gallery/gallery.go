// Package gallery hosts wedding photo galleries: S3 storage, resized
// variants for the public site, and CDN URLs.
package gallery

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decode support
)

// Variant widths served to the public site.
const (
	LargeWidth     = 1600
	MediumWidth    = 800
	ThumbnailWidth = 200
	JPEGQuality    = 85
	MaxFileSizeMB  = 15
)

// SupportedImageTypes lists the content types guests and couples can upload.
var SupportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Photo represents an uploaded gallery photo and its variants.
type Photo struct {
	ID               string    `json:"id"`
	WeddingID        string    `json:"wedding_id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	ContentType      string    `json:"content_type"`
	Size             int64     `json:"size"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	Caption          string    `json:"caption,omitempty"`
	S3Key            string    `json:"s3_key"`
	S3KeyThumbnail   string    `json:"s3_key_thumbnail,omitempty"`
	S3KeyMedium      string    `json:"s3_key_medium,omitempty"`
	S3KeyLarge       string    `json:"s3_key_large,omitempty"`
	CDNURL           string    `json:"cdn_url"`
	CDNURLThumbnail  string    `json:"cdn_url_thumbnail,omitempty"`
	CDNURLMedium     string    `json:"cdn_url_medium,omitempty"`
	CDNURLLarge      string    `json:"cdn_url_large,omitempty"`
	Checksum         string    `json:"checksum,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// resizeImage scales an image down to maxWidth preserving aspect ratio.
func resizeImage(img image.Image, maxWidth int, format string, quality int) ([]byte, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxWidth {
		return nil, fmt.Errorf("image already smaller than target")
	}

	newWidth := maxWidth
	newHeight := int(float64(height) * float64(maxWidth) / float64(width))

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	case "png":
		if err := png.Encode(&buf, dst); err != nil {
			return nil, err
		}
	case "gif":
		if err := gif.Encode(&buf, dst, nil); err != nil {
			return nil, err
		}
	default:
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func detectContentType(data []byte) string {
	if len(data) >= 2 {
		if data[0] == 0xFF && data[1] == 0xD8 {
			return "image/jpeg"
		}
	}
	if len(data) >= 8 {
		if data[0] == 0x89 && data[1] == 'P' && data[2] == 'N' && data[3] == 'G' {
			return "image/png"
		}
	}
	if len(data) >= 6 {
		if data[0] == 'G' && data[1] == 'I' && data[2] == 'F' {
			return "image/gif"
		}
	}
	if len(data) >= 12 {
		if data[0] == 'R' && data[1] == 'I' && data[2] == 'F' && data[3] == 'F' &&
			data[8] == 'W' && data[9] == 'E' && data[10] == 'B' && data[11] == 'P' {
			return "image/webp"
		}
	}
	return "application/octet-stream"
}

func getExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}

func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	filename = strings.ReplaceAll(filename, "..", "")
	filename = strings.ReplaceAll(filename, "/", "")
	filename = strings.ReplaceAll(filename, "\\", "")
	if len(filename) > 200 {
		ext := filepath.Ext(filename)
		filename = filename[:200-len(ext)] + ext
	}
	return filename
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
