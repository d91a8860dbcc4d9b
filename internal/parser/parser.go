package parser

import (
	"path/filepath"
	"strings"
)

// SupportedExtensions lists file extensions this tool can handle.
var SupportedExtensions = map[string]bool{
	".xml": true,
	".ead": true,
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
