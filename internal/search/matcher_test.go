package search

import "testing"

func TestMatchTag(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		tag      string
		expected bool
	}{
		{"exact match", "linux", "linux", true},
		{"exact match is case-insensitive", "Linux", "liNux", true},
		{"exact mismatch", "linux", "windows", false},
		{"bare star matches everything", "*", "anything", true},
		{"prefix wildcard", "lin*", "linux", true},
		{"prefix wildcard mismatch", "lin*", "archlinux", false},
		{"suffix wildcard", "*nux", "linux", true},
		{"suffix wildcard mismatch", "*nux", "nuxt", false},
		{"substring wildcard", "*inu*", "linux", true},
		{"substring wildcard mismatch", "*inu*", "windows", false},
		{"no partial match without wildcard", "lin", "linux", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchTag(tt.pattern, tt.tag); got != tt.expected {
				t.Errorf("MatchTag(%q, %q) = %v, want %v", tt.pattern, tt.tag, got, tt.expected)
			}
		})
	}
}

func TestParseTagQuery(t *testing.T) {
	q := ParseTagQuery("gnu -video soft* -*ware", " ")

	if !slicesEqual(q.Positive, []string{"gnu", "soft*"}) {
		t.Errorf("Positive = %v, want [gnu soft*]", q.Positive)
	}
	if !slicesEqual(q.Negative, []string{"video", "*ware"}) {
		t.Errorf("Negative = %v, want [video *ware]", q.Negative)
	}

	if !ParseTagQuery("", " ").IsEmpty() {
		t.Error("empty query should be empty")
	}
	if !ParseTagQuery("  -  ", " ").IsEmpty() {
		t.Error("lone dash should be discarded")
	}
}

func TestTagQueryMatch(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		tags     []string
		expected bool
	}{
		{"positive AND satisfied", "gnu stuff", []string{"gnu", "stuff", "extra"}, true},
		{"positive AND unsatisfied", "gnu stuff", []string{"gnu"}, false},
		{"exclusion rejects", "stuff -gnu", []string{"gnu", "stuff"}, false},
		{"exclusion passes", "stuff -gnu", []string{"stuff"}, true},
		{"star matches any tagged", "*", []string{"one"}, true},
		{"star rejects untagged", "*", nil, false},
		{"minus star keeps only untagged", "-*", nil, true},
		{"minus star rejects tagged", "-*", []string{"one"}, false},
		{"wildcard exclusion", "-*ware", []string{"software"}, false},
		{"case-insensitive positive", "GNU", []string{"gnu"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ParseTagQuery(tt.query, " ")
			if got := q.Match(tt.tags); got != tt.expected {
				t.Errorf("Match(%v) for %q = %v, want %v", tt.tags, tt.query, got, tt.expected)
			}
		})
	}
}

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
