package extract

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// FileType classifies an input file. Its string form appears in extract
// file names and headers.
type FileType string

const (
	TypeText    FileType = "Text"
	TypePDF     FileType = "PDF"
	TypeImage   FileType = "Image"
	TypeAudio   FileType = "Audio"
	TypeVideo   FileType = "Video"
	TypeUnknown FileType = "Unknown"
)

var extensionTypes = map[string]FileType{
	".txt": TypeText, ".csv": TypeText, ".md": TypeText,
	".json": TypeText, ".xml": TypeText, ".html": TypeText,

	".pdf": TypePDF,

	".jpg": TypeImage, ".jpeg": TypeImage, ".png": TypeImage, ".gif": TypeImage,
	".bmp": TypeImage, ".webp": TypeImage, ".tiff": TypeImage,

	".mp3": TypeAudio, ".wav": TypeAudio, ".ogg": TypeAudio,
	".flac": TypeAudio, ".aac": TypeAudio, ".m4a": TypeAudio,

	".mp4": TypeVideo, ".avi": TypeVideo, ".mov": TypeVideo,
	".mkv": TypeVideo, ".webm": TypeVideo, ".flv": TypeVideo,
}

// Supported reports whether path has an extension classified without sniffing.
func Supported(path string) bool {
	_, ok := extensionTypes[strings.ToLower(filepath.Ext(path))]
	return ok
}

// DetectType classifies path by extension, then by sniffing its content.
func DetectType(path string) FileType {
	if t, ok := extensionTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return t
	}
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return TypeUnknown
	}
	return typeFromMIME(m)
}

func typeFromMIME(m *mimetype.MIME) FileType {
	if m.Is("application/pdf") {
		return TypePDF
	}
	// Walk up the hierarchy: application/json is a child of text/plain.
	for ; m != nil; m = m.Parent() {
		switch {
		case strings.HasPrefix(m.String(), "text/"):
			return TypeText
		case strings.HasPrefix(m.String(), "image/"):
			return TypeImage
		case strings.HasPrefix(m.String(), "audio/"):
			return TypeAudio
		case strings.HasPrefix(m.String(), "video/"):
			return TypeVideo
		}
	}
	return TypeUnknown
}
