package htmlsanitize_test

import (
	"testing"

	"github.com/imaggar-technologies/brintelli/internal/app/system/htmlsanitize"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "Called, no answer", "Called, no answer"},
		{"trims", "  spoke to parent  ", "spoke to parent"},
		{"ampersand", "Fees & EMI discussed", "Fees & EMI discussed"},
		{"strips tags", "<b>Keen</b> on <i>data</i>", "Keen on data"},
		{"drops script", "ok<script>alert('x')</script>", "ok"},
		{"only markup", "<img src=x onerror=alert(1)>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.PlainText(tt.input); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

