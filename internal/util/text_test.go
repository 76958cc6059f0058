package util

import "testing"

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain utf8",
			input: "hello world",
			want:  "hello world",
		},
		{
			name:  "contains null byte",
			input: "hel\x00lo",
			want:  "hello",
		},
		{
			name:  "contains invalid utf8",
			input: string([]byte{'a', 0xff, 'b'}),
			want:  "ab",
		},
		{
			name:  "windows line endings",
			input: "a\r\nb\rc",
			want:  "a\nb\nc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanText(tt.input)
			if got != tt.want {
				t.Fatalf("unexpected cleaned value: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("PAPERGRAPH_TEST_LIST", " llama3.1, ,mistral ,gemma:2b")
	got := GetEnvList("PAPERGRAPH_TEST_LIST", nil)
	want := []string{"llama3.1", "mistral", "gemma:2b"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	if got := GetEnvList("PAPERGRAPH_TEST_LIST_UNSET", []string{"x"}); len(got) != 1 || got[0] != "x" {
		t.Fatalf("expected default, got %v", got)
	}
}

func TestGetEnvFirst(t *testing.T) {
	t.Setenv("PAPERGRAPH_TEST_B", "second")
	if got := GetEnvFirst("fallback", "PAPERGRAPH_TEST_A", "PAPERGRAPH_TEST_B"); got != "second" {
		t.Fatalf("expected second, got %q", got)
	}
	if got := GetEnvFirst("fallback", "PAPERGRAPH_TEST_A"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
