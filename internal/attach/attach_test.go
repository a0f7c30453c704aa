package attach

import (
	"testing"

	"chatpad/internal/models"
)

// Minimal valid headers recognized by magic-byte sniffing.
var (
	pngHeader  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 0x49, 0x48, 0x44, 0x52}
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46}
	pdfHeader  = []byte("%PDF-1.7 ")
	zipHeader  = []byte{0x50, 0x4B, 0x03, 0x04, 0x0A, 0x00, 0x00, 0x00}
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want models.MessageKind
	}{
		{"Empty", nil, models.KindText},
		{"PNG", pngHeader, models.KindImage},
		{"JPEG", jpegHeader, models.KindImage},
		{"PDF", pdfHeader, models.KindFile},
		{"ZIP", zipHeader, models.KindFile},
		{"Plain text", []byte("just a note"), models.KindText},
		{"Unknown binary", []byte{0x00, 0xFF, 0xFE, 0x01, 0x80, 0x9F}, models.KindFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Kind(tt.data); got != tt.want {
				t.Errorf("Kind() = %s, want %s", got, tt.want)
			}
		})
	}
}
