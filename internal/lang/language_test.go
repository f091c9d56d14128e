package lang_test

import (
	"errors"
	"testing"

	"github.com/RodimusGPT/wisekeep-sub001/internal/lang"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "en", want: "en"},
		{in: "PT-BR", want: "pt-br"},
		{in: "pt_BR", want: "pt-br"},
		{in: "ZH", want: "zh"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		if got := lang.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBaseCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "pt-BR", want: "pt"},
		{in: "zh-CN", want: "zh"},
		{in: "en", want: "en"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		if got := lang.BaseCode(tt.in); got != tt.want {
			t.Errorf("BaseCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "empty auto-detect", in: ""},
		{name: "simple code", in: "en"},
		{name: "locale", in: "pt-BR"},
		{name: "underscore locale", in: "pt_BR"},
		{name: "uppercase", in: "FR"},
		{name: "unknown", in: "xx", wantErr: true},
		{name: "unknown locale base", in: "xx-YY", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := lang.Validate(tt.in)
			if tt.wantErr && !errors.Is(err, lang.ErrInvalid) {
				t.Errorf("Validate(%q) error = %v, want ErrInvalid", tt.in, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate(%q) error = %v", tt.in, err)
			}
		})
	}
}
