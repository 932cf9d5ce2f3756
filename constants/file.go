package constants

import "strings"

const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// AllowedExtensions holds the extensions accepted at intake. PDFs are accepted
// so they can be recorded with an unsupported_format status.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

var imageExts = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns IMAGE, PDF or "" for anything the OCR stage cannot classify.
func MapExtToFormat(ext string) string {
	ext = NormalizeExt(ext)
	if _, ok := imageExts[ext]; ok {
		return IMAGE
	}
	if ext == "pdf" {
		return PDF
	}
	return ""
}
