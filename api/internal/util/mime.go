package util

import (
	"bytes"
	"net/http"
	"strings"
)

func SniffMimeHTTP(b []byte) string {
	switch {
	case len(b) >= 2 && b[0] == 0xFF && b[1] == 0xD8:
		return "image/jpeg"
	case len(b) >= 8 && bytes.Equal(b[:8], []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}):
		return "image/png"
	case len(b) >= 12 && string(b[:4]) == "RIFF" && string(b[8:12]) == "WEBP":
		return "image/webp"
	case len(b) >= 6 && (string(b[:6]) == "GIF87a" || string(b[:6]) == "GIF89a"):
		return "image/gif"
	}
	return "application/octet-stream"
}

// PickMIME берём явный MIME, затем детектим по байтам.
func PickMIME(explicit string, data []byte) string {
	if exp := strings.ToLower(strings.TrimSpace(explicit)); exp != "" && exp != "application/octet-stream" {
		if i := strings.IndexByte(exp, ';'); i >= 0 {
			exp = strings.TrimSpace(exp[:i])
		}
		if IsImageMIME(exp) {
			return exp
		}
	}
	if m := SniffMimeHTTP(data); m != "application/octet-stream" {
		return m
	}
	if len(data) > 0 {
		return http.DetectContentType(data)
	}
	return "application/octet-stream"
}

func IsImageMIME(m string) bool {
	switch strings.ToLower(strings.TrimSpace(m)) {
	case "image/jpeg", "image/jpg", "image/png", "image/webp", "image/gif":
		return true
	}
	return false
}
