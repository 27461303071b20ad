package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"path"
	"strings"

	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/jonathan/sitecheck/internal/sourcefs"
	"github.com/jonathan/sitecheck/internal/types"
)

const (
	// DefaultMaxFileSize is the largest image accepted without a file-size warning.
	DefaultMaxFileSize int64 = 500 * 1024
	// DefaultMaxDimension is the widest/tallest image accepted without a dimensions warning.
	DefaultMaxDimension = 3200
)

// decodableExtensions have a registered decoder. Other image types skip dimension checks.
var decodableExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// modernSiblings are the next-gen formats that satisfy the JPEG format check.
var modernSiblings = []string{".webp", ".avif"}

// Thresholds are the limits shared by runtime and backlog validation.
type Thresholds struct {
	MaxFileSize  int64
	MaxDimension int
}

// DefaultThresholds returns the default image limits.
func DefaultThresholds() Thresholds {
	return Thresholds{MaxFileSize: DefaultMaxFileSize, MaxDimension: DefaultMaxDimension}
}

// DecodeError represents an image whose header could not be decoded
type DecodeError struct {
	Path  string
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error: %s: %v", e.Path, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// DecodeDimensions reads the pixel size of an image from its header.
func DecodeDimensions(name string, data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, &DecodeError{Path: name, Cause: err}
	}
	return cfg.Width, cfg.Height, nil
}

// CheckFile validates one image file. subject is the locator issues are reported under.
// A file whose header cannot be decoded yields a single unreadable-image error in place
// of dimension checks; the size and format checks still run.
func CheckFile(fsys sourcefs.FS, name, subject string, limits Thresholds, checkFormat bool) ([]types.Issue, error) {
	var issues []types.Issue
	ext := strings.ToLower(path.Ext(name))

	size, err := fsys.Size(name)
	if err != nil {
		return nil, err
	}
	if size > limits.MaxFileSize {
		issues = append(issues, types.Issue{
			Subject:  subject,
			Severity: types.SeverityWarning,
			Category: types.CategoryFileSize,
			Rule:     types.RuleImageTooLarge,
			Message:  fmt.Sprintf("Image %s is %s (max %s)", name, formatBytes(size), formatBytes(limits.MaxFileSize)),
			Fix:      "Compress the image or serve a resized variant",
			Details:  map[string]any{"file": name, "fileSize": size, "maxFileSize": limits.MaxFileSize},
		})
	}

	if decodableExtensions[ext] {
		data, err := fsys.ReadBytes(name)
		if err != nil {
			return nil, err
		}
		width, height, err := DecodeDimensions(name, data)
		if err != nil {
			issues = append(issues, types.Issue{
				Subject:  subject,
				Severity: types.SeverityError,
				Category: types.CategoryDimensions,
				Rule:     types.RuleUnreadableImage,
				Message:  fmt.Sprintf("Image could not be read: %v", err),
				Fix:      "Re-export the image; the file appears to be corrupt",
				Details:  map[string]any{"file": name},
			})
		} else {
			issues = append(issues, checkDimensions(name, subject, width, height, limits.MaxDimension)...)
		}
	}

	if checkFormat && (ext == ".jpg" || ext == ".jpeg") && !hasModernSibling(fsys, name) {
		issues = append(issues, types.Issue{
			Subject:  subject,
			Severity: types.SeverityWarning,
			Category: types.CategoryFormat,
			Rule:     types.RuleLegacyFormat,
			Message:  fmt.Sprintf("JPEG image %s has no WebP or AVIF alternative", name),
			Fix:      fmt.Sprintf("Add %s.webp next to the original", strings.TrimSuffix(path.Base(name), path.Ext(name))),
			Details:  map[string]any{"file": name},
		})
	}

	return issues, nil
}

func checkDimensions(name, subject string, width, height, limit int) []types.Issue {
	var issues []types.Issue
	details := map[string]any{"file": name, "width": width, "height": height, "maxDimension": limit}

	if width > limit {
		issues = append(issues, types.Issue{
			Subject:  subject,
			Severity: types.SeverityWarning,
			Category: types.CategoryDimensions,
			Rule:     types.RuleImageTooWide,
			Message:  fmt.Sprintf("Image %s is %dpx wide (max %dpx)", name, width, limit),
			Fix:      "Resize the image to the largest size it is displayed at",
			Details:  details,
		})
	}
	if height > limit {
		issues = append(issues, types.Issue{
			Subject:  subject,
			Severity: types.SeverityWarning,
			Category: types.CategoryDimensions,
			Rule:     types.RuleImageTooTall,
			Message:  fmt.Sprintf("Image %s is %dpx tall (max %dpx)", name, height, limit),
			Fix:      "Resize the image to the largest size it is displayed at",
			Details:  details,
		})
	}
	return issues
}

func hasModernSibling(fsys sourcefs.FS, name string) bool {
	base := strings.TrimSuffix(name, path.Ext(name))
	for _, ext := range modernSiblings {
		if fsys.Exists(base + ext) {
			return true
		}
	}
	return false
}

func formatBytes(n int64) string {
	if n >= 1024*1024 {
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
	return fmt.Sprintf("%d KB", n/1024)
}
