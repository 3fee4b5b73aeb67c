package data

import (
	"strings"
)

type ContentType string

const (
	ContentTypeTextPlain         ContentType = "text/plain"
	ContentTypeTextMarkdown      ContentType = "text/markdown"
	ContentTypeTextHTML          ContentType = "text/html"
	ContentTypeTextCSV           ContentType = "text/csv"
	ContentTypeImageJPEG         ContentType = "image/jpeg"
	ContentTypeImagePNG          ContentType = "image/png"
	ContentTypeImageGIF          ContentType = "image/gif"
	ContentTypeImageWebP         ContentType = "image/webp"
	ContentTypeImageSVGXML       ContentType = "image/svg+xml"
	ContentTypeAudioMpeg         ContentType = "audio/mpeg"
	ContentTypeAudioMP4          ContentType = "audio/mp4"
	ContentTypeAudioOGG          ContentType = "audio/ogg"
	ContentTypeAudioFLAC         ContentType = "audio/flac"
	ContentTypeVideoMP4          ContentType = "video/mp4"
	ContentTypeVideoWebM         ContentType = "video/webm"
	ContentTypeApplicationPDF    ContentType = "application/pdf"
	ContentTypeApplicationEPUB   ContentType = "application/epub+zip"
	ContentTypeApplicationZip    ContentType = "application/zip"
	ContentTypeApplicationJson   ContentType = "application/json"
	ContentTypeApplicationXML    ContentType = "application/xml"
	ContentTypeApplicationStream ContentType = "application/octet-stream"
)

// Encodings recorded for imported files.
const (
	EncodingUTF8   = "utf-8"
	EncodingBinary = "binary"
)

// ExtensionToMIME maps the final extension of a file name to its MIME type.
var ExtensionToMIME = map[string]ContentType{
	"txt":  ContentTypeTextPlain,
	"md":   ContentTypeTextMarkdown,
	"html": ContentTypeTextHTML,
	"csv":  ContentTypeTextCSV,
	"jpg":  ContentTypeImageJPEG,
	"jpeg": ContentTypeImageJPEG,
	"png":  ContentTypeImagePNG,
	"gif":  ContentTypeImageGIF,
	"webp": ContentTypeImageWebP,
	"svg":  ContentTypeImageSVGXML,
	"mp3":  ContentTypeAudioMpeg,
	"m4a":  ContentTypeAudioMP4,
	"m4b":  ContentTypeAudioMP4,
	"ogg":  ContentTypeAudioOGG,
	"flac": ContentTypeAudioFLAC,
	"mp4":  ContentTypeVideoMP4,
	"webm": ContentTypeVideoWebM,
	"pdf":  ContentTypeApplicationPDF,
	"epub": ContentTypeApplicationEPUB,
	"zip":  ContentTypeApplicationZip,
	"json": ContentTypeApplicationJson,
	"xml":  ContentTypeApplicationXML,
}

// GetMIMEType returns the MIME type for a file name by its last extension, so a
// pico8 cartridge "jelpi.p8.png" is an image.
func GetMIMEType(name string) ContentType {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ContentTypeApplicationStream
	}

	if mimeType, exists := ExtensionToMIME[strings.ToLower(name[i+1:])]; exists {
		return mimeType
	}

	// Default to octet-stream for unknown types
	return ContentTypeApplicationStream
}

// IsText reports whether content of this type is stored as text.
func (c ContentType) IsText() bool {
	return strings.HasPrefix(string(c), "text/") ||
		c == ContentTypeApplicationJson ||
		c == ContentTypeApplicationXML ||
		c == ContentTypeImageSVGXML
}

// EncodingOf returns the encoding recorded for a file name.
func EncodingOf(name string) string {
	if GetMIMEType(name).IsText() {
		return EncodingUTF8
	}
	return EncodingBinary
}
