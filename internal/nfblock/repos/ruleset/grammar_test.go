package ruleset

import (
	"testing"
)

func TestParseElementStatement(t *testing.T) {
	tests := []struct {
		name string
		line string
		want ElementStatement
		ok   bool
	}{
		{
			name: "range",
			line: "add element inet filter blocklist { 10.0.0.1-10.0.0.5 } # MySource",
			want: ElementStatement{Family: "inet", Table: "filter", Set: "blocklist", Start: "10.0.0.1", End: "10.0.0.5", Label: "MySource"},
			ok:   true,
		},
		{
			name: "single host",
			line: "add element inet filter blocklist { 1.2.3.4 } # Bad",
			want: ElementStatement{Family: "inet", Table: "filter", Set: "blocklist", Start: "1.2.3.4", End: "1.2.3.4", Label: "Bad"},
			ok:   true,
		},
		{
			name: "label trimmed, inner spacing kept",
			line: "add element ip fw bl { 1.2.3.4-1.2.3.9 } #   Level 1  (bt)   ",
			want: ElementStatement{Family: "ip", Table: "fw", Set: "bl", Start: "1.2.3.4", End: "1.2.3.9", Label: "Level 1  (bt)"},
			ok:   true,
		},
		{
			name: "label with braces and hashes",
			line: "add element inet filter blocklist { 1.2.3.4 } # a } # b {",
			want: ElementStatement{Family: "inet", Table: "filter", Set: "blocklist", Start: "1.2.3.4", End: "1.2.3.4", Label: "a } # b {"},
			ok:   true,
		},
		{
			name: "tabs and tight braces",
			line: "add\telement\tinet\tfilter\tblocklist\t{1.2.3.4-1.2.3.5}#x",
			want: ElementStatement{Family: "inet", Table: "filter", Set: "blocklist", Start: "1.2.3.4", End: "1.2.3.5", Label: "x"},
			ok:   true,
		},
		{
			name: "empty label",
			line: "add element inet filter blocklist { 1.2.3.4 } #",
			want: ElementStatement{Family: "inet", Table: "filter", Set: "blocklist", Start: "1.2.3.4", End: "1.2.3.4"},
			ok:   true,
		},
		{name: "flush set", line: "flush set inet filter blocklist"},
		{name: "flush map", line: "flush map inet filter blockcount"},
		{name: "add counter", line: "add counter inet filter 1.2.3.4"},
		{name: "counter map element", line: "add element inet filter blockcount { 1.2.3.4-1.2.3.9 : 1.2.3.4 }"},
		{name: "no comment", line: "add element inet filter blocklist { 1.2.3.4 }"},
		{name: "missing set", line: "add element inet filter { 1.2.3.4 } # x"},
		{name: "not an address", line: "add element inet filter blocklist { example.com } # x"},
		{name: "cidr", line: "add element inet filter blocklist { 10.0.0.0/8 } # x"},
		{name: "glued keyword", line: "addelement inet filter blocklist { 1.2.3.4 } # x"},
		{name: "comment line", line: "# add element inet filter blocklist { 1.2.3.4 } # x"},
		{name: "blank", line: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseElementStatement(tt.line)
			if ok != tt.ok {
				t.Fatalf("ParseElementStatement(%q) ok = %v, want %v (got %+v)", tt.line, ok, tt.ok, got)
			}
			if ok && got != tt.want {
				t.Fatalf("ParseElementStatement(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}
