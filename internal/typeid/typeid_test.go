package typeid

import (
	"strings"
	"testing"
)

func TestNewCarriesPrefix(t *testing.T) {
	tests := []struct {
		name   string
		gen    func() string
		prefix string
	}{
		{"line", NewLineID, PrefixLine},
		{"path", NewPathID, PrefixPath},
		{"image", NewImageID, PrefixImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := tt.gen()
			if !strings.HasPrefix(id, tt.prefix+"_") {
				t.Errorf("id %q missing prefix %q", id, tt.prefix)
			}
			if err := Validate(id, tt.prefix); err != nil {
				t.Errorf("Validate(%q) error = %v", id, err)
			}
			if got := Prefix(id); got != tt.prefix {
				t.Errorf("Prefix(%q) = %q, want %q", id, got, tt.prefix)
			}
		})
	}
}

func TestValidateRejects(t *testing.T) {
	if err := Validate(NewLineID(), PrefixImage); err == nil {
		t.Error("Validate with wrong prefix: want error")
	}
	if err := Validate("not-an-id", PrefixLine); err == nil {
		t.Error("Validate garbage: want error")
	}
	if got := Prefix("not-an-id"); got != "" {
		t.Errorf("Prefix(garbage) = %q, want empty", got)
	}
}

func TestSuffix(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"line_01h455vb4pex5vsknk084sn02q", "01h455vb4pex5vsknk084sn02q"},
		{"img_01h455vb4pex5vsknk084sn02q", "01h455vb4pex5vsknk084sn02q"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Suffix(tt.id); got != tt.want {
			t.Errorf("Suffix(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
