package omnibox

import (
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{name: "https url", in: "https://example.com/a?b=1", want: "https://example.com/a?b=1"},
		{name: "http url", in: "http://example.com", want: "http://example.com"},
		{name: "surrounding space", in: "  https://example.com  ", want: "https://example.com"},
		{name: "bare domain", in: "example.com", want: "https://example.com"},
		{name: "domain with path", in: "go.dev/doc/effective_go", want: "https://go.dev/doc/effective_go"},
		{name: "localhost with port", in: "localhost:8080/x", want: "http://localhost:8080/x"},
		{name: "loopback ip", in: "127.0.0.1:3000", want: "http://127.0.0.1:3000"},
		{name: "private ip", in: "10.0.0.2/status", want: "https://10.0.0.2/status"},
		{name: "blank", in: "   ", wantErr: ErrEmpty},
		{name: "words", in: "css selectors", wantErr: ErrNotURL},
		{name: "single word", in: "kettles", wantErr: ErrNotURL},
		{name: "trailing dot", in: "example.", wantErr: ErrNotURL},
		{name: "ftp", in: "ftp://example.com/file", wantErr: ErrUnsupportedScheme},
		{name: "file", in: "file:///etc/hosts", wantErr: ErrUnsupportedScheme},
		{name: "no host", in: "https://", wantErr: ErrNotURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve(%q) error = %v, want %v", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
