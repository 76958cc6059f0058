package ai

import (
	"testing"
)

func TestUnmarshalFlexible_ObjectVariants(t *testing.T) {
	type person struct {
		Name string `json:"name"`
		Age  int    `json:"age,omitempty"`
	}

	tests := []struct {
		name  string
		input string
		want  person
	}{
		{
			name:  "valid json object",
			input: `{"name":"John"}`,
			want:  person{Name: "John"},
		},
		{
			name:  "unquoted key and single quotes",
			input: `{name: 'John'}`,
			want:  person{Name: "John"},
		},
		{
			name:  "trailing comma",
			input: `{"name":"John",}`,
			want:  person{Name: "John"},
		},
		{
			name:  "missing endbracket",
			input: `{"name":"John`,
			want:  person{Name: "John"},
		},
		{
			name:  "stringified invalid json object",
			input: `"{name: 'John'}"`,
			want:  person{Name: "John"},
		},
		{
			name:  "duplicate leading brace",
			input: "{\n{\n  \"name\": \"John\"\n}\n",
			want:  person{Name: "John"},
		},
		{
			name:  "duplicate leading brace no newlines",
			input: `{ { "name": "John" }`,
			want:  person{Name: "John"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got person
			if err := UnmarshalFlexible(tc.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if got.Name != tc.want.Name || got.Age != tc.want.Age {
				t.Fatalf("UnmarshalFlexible() got = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestUnmarshalFlexible_ArrayVariants(t *testing.T) {
	type person struct {
		Name string `json:"name"`
		Age  int    `json:"age,omitempty"`
	}

	input := `[{name:'A'},{name:'B',}]`
	var got []person
	if err := UnmarshalFlexible(input, &got); err != nil {
		t.Fatalf("UnmarshalFlexible() error = %v", err)
	}
	if len(got) != 2 || got[0].Name != "A" || got[1].Name != "B" {
		t.Fatalf("UnmarshalFlexible() got = %+v, want two persons A,B", got)
	}
}

func TestUnmarshalFlexible_Unrecoverable(t *testing.T) {
	type person struct {
		Name string `json:"name"`
		Age  int    `json:"age,omitempty"`
	}

	var got person
	if err := UnmarshalFlexible("hello", &got); err == nil {
		t.Fatalf("UnmarshalFlexible() expected error for unrecoverable input")
	}
}

func TestUnmarshalFlexible_CountryExamples(t *testing.T) {
	type country struct {
		Name      string   `json:"name"`
		Capital   string   `json:"capital"`
		Languages []string `json:"languages"`
	}

	tests := []struct {
		name  string
		input string
		want  country
	}{
		{
			name:  "canada simple stringified",
			input: `"{ \"name\": \"Canada\", \"capital\": \"Ottawa\", \"languages\": [ \"English\", \"French\" ] }"`,
			want:  country{Name: "Canada", Capital: "Ottawa", Languages: []string{"English", "French"}},
		},
		{
			name:  "canada stringified with newlines",
			input: `"{\n  \"name\": \"Canada\",\n  \"capital\": \"Ottawa\",\n  \"languages\": [\"English\", \"French\", \"Other Indigenous Languages (e.g., Cree, Inuktitut)\"]\n  }\n"`,
			want:  country{Name: "Canada", Capital: "Ottawa", Languages: []string{"English", "French", "Other Indigenous Languages (e.g., Cree, Inuktitut)"}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got country
			if err := UnmarshalFlexible(tc.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if got.Name != tc.want.Name || got.Capital != tc.want.Capital {
				t.Fatalf("UnmarshalFlexible() got = %+v, want %+v", got, tc.want)
			}
			if len(got.Languages) != len(tc.want.Languages) {
				t.Fatalf("UnmarshalFlexible() languages length got = %d, want %d", len(got.Languages), len(tc.want.Languages))
			}
			for i := range got.Languages {
				if got.Languages[i] != tc.want.Languages[i] {
					t.Fatalf("UnmarshalFlexible() languages[%d] = %q, want %q", i, got.Languages[i], tc.want.Languages[i])
				}
			}
		})
	}
}

func TestParseStructured_Outcomes(t *testing.T) {
	type payload struct {
		Nodes []struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"nodes"`
	}

	tests := []struct {
		name    string
		input   string
		want    ParseOutcome
		wantIDs int
	}{
		{
			name:    "plain json",
			input:   `{"nodes":[{"id":"BERT","type":"Method"}]}`,
			want:    ParseParsed,
			wantIDs: 1,
		},
		{
			name:    "fenced json",
			input:   "Here is the graph:\n```json\n{\"nodes\":[{\"id\":\"BERT\",\"type\":\"Method\"},{\"id\":\"GLUE\",\"type\":\"Dataset\"}]}\n```\nDone.",
			want:    ParseParsed,
			wantIDs: 2,
		},
		{
			name:    "trailing comma",
			input:   `{"nodes":[{"id":"BERT","type":"Method"},]}`,
			want:    ParseRepaired,
			wantIDs: 1,
		},
		{
			name:    "fenced and broken",
			input:   "```\n{nodes: [{id: 'BERT', type: 'Method'}]}\n```",
			want:    ParseRepaired,
			wantIDs: 1,
		},
		{
			name:  "empty",
			input: "   ",
			want:  ParseFailed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got payload
			res := ParseStructured(tc.input, &got)
			if res.Outcome != tc.want {
				t.Fatalf("ParseStructured() outcome = %s, want %s (err: %v)", res.Outcome, tc.want, res.Err)
			}
			if res.Raw != tc.input {
				t.Fatalf("ParseStructured() raw = %q, want input", res.Raw)
			}
			if len(got.Nodes) != tc.wantIDs {
				t.Fatalf("ParseStructured() nodes = %d, want %d", len(got.Nodes), tc.wantIDs)
			}
			if tc.want == ParseFailed && res.Err == nil {
				t.Fatalf("ParseStructured() expected error for failed outcome")
			}
		})
	}
}

func TestParseStructured_NonPointer(t *testing.T) {
	var out struct{}
	res := ParseStructured(`{}`, out)
	if res.OK() || res.Err == nil {
		t.Fatalf("ParseStructured() expected failure for non-pointer target")
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no fence", "MATCH (n) RETURN n", "MATCH (n) RETURN n"},
		{"cypher fence", "```cypher\nMATCH (n) RETURN n\n```", "MATCH (n) RETURN n"},
		{"bare fence", "```\nMATCH (n) RETURN n\n```", "MATCH (n) RETURN n"},
		{"text around", "Query:\n```cypher\nMATCH (a:Author) RETURN a.name\n```\nThis lists authors.", "MATCH (a:Author) RETURN a.name"},
		{"unterminated", "```cypher\nMATCH (n) RETURN n", "MATCH (n) RETURN n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripCodeFence(tc.input); got != tc.want {
				t.Fatalf("StripCodeFence() = %q, want %q", got, tc.want)
			}
		})
	}
}
