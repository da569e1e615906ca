package jsonx

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMarshal_NoHTMLEscape(t *testing.T) {
	data, err := Marshal(map[string]string{"name": "Rock & Roll <live> · Café"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	got := string(data)
	if !strings.Contains(got, "Rock & Roll <live> · Café") {
		t.Errorf("Marshal() = %s, want raw characters preserved", got)
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("Marshal() should not end with a newline")
	}
}

func TestExtra(t *testing.T) {
	known := map[string]bool{"name": true}

	extra, err := Extra([]byte(`{"name":"a","price":"free","tags":[1,2]}`), known)
	if err != nil {
		t.Fatalf("Extra() error = %v", err)
	}
	if len(extra) != 2 {
		t.Fatalf("Extra() returned %d members, want 2", len(extra))
	}
	if string(extra["price"]) != `"free"` {
		t.Errorf("extra[price] = %s, want \"free\"", extra["price"])
	}

	none, err := Extra([]byte(`{"name":"a"}`), known)
	if err != nil {
		t.Fatalf("Extra() error = %v", err)
	}
	if none != nil {
		t.Errorf("Extra() = %v, want nil when every key is known", none)
	}

	if _, err := Extra([]byte(`[1,2]`), known); err == nil {
		t.Error("Extra() expected error for non-object input")
	}
}

func TestWithExtra(t *testing.T) {
	type item struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name  string
		value any
		extra map[string]json.RawMessage
		want  string
	}{
		{
			name:  "no extra",
			value: item{Name: "a"},
			want:  `{"name":"a"}`,
		},
		{
			name:  "sorted extra appended",
			value: item{Name: "a"},
			extra: map[string]json.RawMessage{"z": json.RawMessage(`1`), "b": json.RawMessage(`"x"`)},
			want:  `{"name":"a","b":"x","z":1}`,
		},
		{
			name:  "known key wins",
			value: item{Name: "a"},
			extra: map[string]json.RawMessage{"name": json.RawMessage(`"stale"`)},
			want:  `{"name":"a"}`,
		},
		{
			name:  "empty object",
			value: struct{}{},
			extra: map[string]json.RawMessage{"k": json.RawMessage(`true`)},
			want:  `{"k":true}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WithExtra(tt.value, tt.extra)
			if err != nil {
				t.Fatalf("WithExtra() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("WithExtra() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEqualAndClone(t *testing.T) {
	a := map[string]json.RawMessage{"k": json.RawMessage(`{"a": 1}`)}
	b := map[string]json.RawMessage{"k": json.RawMessage(`{"a":1}`)}

	if !Equal(a, b) {
		t.Error("Equal() should ignore whitespace differences")
	}
	if Equal(a, map[string]json.RawMessage{"k": json.RawMessage(`{"a":2}`)}) {
		t.Error("Equal() should detect different values")
	}
	if Equal(a, nil) {
		t.Error("Equal() should detect missing keys")
	}

	c := Clone(a)
	c["k"][1] = 'x'
	if string(a["k"]) != `{"a": 1}` {
		t.Error("Clone() should not share backing arrays")
	}
	if Clone(nil) != nil {
		t.Error("Clone(nil) should be nil")
	}
}

func TestObject_RejectedFieldsBecomeExtra(t *testing.T) {
	obj, err := DecodeObject([]byte(`{"name":"a","count":"many","note":"x"}`))
	if err != nil {
		t.Fatalf("DecodeObject() error = %v", err)
	}

	var name string
	var count int
	obj.Field("name", func(raw json.RawMessage) error { return json.Unmarshal(raw, &name) })
	obj.Field("count", func(raw json.RawMessage) error { return json.Unmarshal(raw, &count) })
	obj.Field("missing", func(json.RawMessage) error {
		t.Error("decoder called for a missing member")
		return nil
	})

	if name != "a" || count != 0 {
		t.Errorf("name = %q, count = %d", name, count)
	}
	if !obj.Rejected() {
		t.Error("Rejected() = false, want true")
	}

	extra := obj.Extra(map[string]bool{"name": true, "count": true})
	if len(extra) != 2 || string(extra["count"]) != `"many"` || string(extra["note"]) != `"x"` {
		t.Errorf("Extra() = %v", extra)
	}

	for _, bad := range []string{`null`, `"text"`, `[1]`} {
		if _, err := DecodeObject([]byte(bad)); err == nil {
			t.Errorf("DecodeObject(%s) expected error", bad)
		}
	}
}
