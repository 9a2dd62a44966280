package sanitizer

import (
	"testing"

	"github.com/absmartly/domeditor/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantChanged bool
		contains    []string
		excludes    []string
	}{
		{
			name:        "plain markup passes through",
			input:       `<p class="intro">hello <strong>world</strong></p>`,
			wantChanged: false,
			contains:    []string{"<strong>world</strong>", `class="intro"`},
		},
		{
			name:        "script tags are stripped",
			input:       `<p>safe</p><script>alert(1)</script>`,
			wantChanged: true,
			contains:    []string{"<p>safe</p>"},
			excludes:    []string{"<script>", "alert"},
		},
		{
			name:        "event handler attributes are stripped",
			input:       `<button onclick="steal()">ok</button>`,
			wantChanged: true,
			excludes:    []string{"onclick"},
		},
		{
			name:        "javascript urls are neutralized",
			input:       `<a href="javascript:alert(1)">x</a>`,
			wantChanged: true,
			excludes:    []string{"javascript:"},
		},
		{
			name:        "images and data attributes survive",
			input:       `<img src="/a.png" data-id="7">`,
			wantChanged: false,
			contains:    []string{`src="/a.png"`, `data-id="7"`},
		},
	}

	s := New(config.NewDefaultSanitizerConfig(), zerolog.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clean, changed := s.Sanitize(tt.input)
			assert.Equal(t, tt.wantChanged, changed)
			for _, want := range tt.contains {
				assert.Contains(t, clean, want)
			}
			for _, not := range tt.excludes {
				assert.NotContains(t, clean, not)
			}
		})
	}
}

func TestSanitizeStyleAttributeToggle(t *testing.T) {
	cfg := config.NewDefaultSanitizerConfig()
	cfg.AllowStyleAttribute = false
	s := New(cfg, zerolog.Nop())

	clean, changed := s.Sanitize(`<p style="color: red">x</p>`)
	assert.True(t, changed)
	assert.NotContains(t, clean, "style=")
}
