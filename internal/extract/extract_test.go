package extract

import (
	"errors"
	"strings"
	"testing"
)

func TestExtract_PlainText(t *testing.T) {
	e := NewFileExtractor()

	text, err := e.Extract([]byte("Jane Doe\nSenior Engineer"), "resume.txt")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(text, "Jane Doe") {
		t.Errorf("Extract() = %q, want resume content", text)
	}
}

func TestExtract_EmptyTextFile(t *testing.T) {
	e := NewFileExtractor()

	_, err := e.Extract([]byte("   \n\t  "), "resume.txt")
	if !errors.Is(err, ErrNoText) {
		t.Errorf("Extract() error = %v, want ErrNoText", err)
	}
}

func TestExtract_UnsupportedFormat(t *testing.T) {
	e := NewFileExtractor()

	tests := []string{"resume.docx", "resume.png", "resume", "resume.PDF.exe"}
	for _, filename := range tests {
		t.Run(filename, func(t *testing.T) {
			_, err := e.Extract([]byte("data"), filename)
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("Extract(%q) error = %v, want ErrUnsupportedFormat", filename, err)
			}
		})
	}
}

func TestExtract_UppercaseExtension(t *testing.T) {
	e := NewFileExtractor()

	text, err := e.Extract([]byte("content"), "RESUME.TXT")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "content" {
		t.Errorf("Extract() = %q, want %q", text, "content")
	}
}

func TestExtract_CorruptPDF(t *testing.T) {
	e := NewFileExtractor()

	_, err := e.Extract([]byte("this is not a pdf at all"), "resume.pdf")
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("Extract() error = %v, want ErrCorrupt", err)
	}
}
