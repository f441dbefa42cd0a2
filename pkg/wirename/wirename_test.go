package wirename

import (
	"sync"
	"testing"
)

func TestToWire(t *testing.T) {
	tests := []struct {
		name    string
		aliases map[string]string
		field   string
		want    string
	}{
		{
			name:  "unregistered passes through",
			field: "my_field",
			want:  "my_field",
		},
		{
			name:    "dash tokens camel-cased",
			aliases: map[string]string{"my_field": "my-field-alias"},
			field:   "my_field",
			want:    "myFieldAlias",
		},
		{
			name:    "alias without dashes kept",
			aliases: map[string]string{"count": "counter"},
			field:   "count",
			want:    "counter",
		},
		{
			name:    "first token untouched",
			aliases: map[string]string{"x": "Upper-case"},
			field:   "x",
			want:    "UpperCase",
		},
		{
			name:    "empty tokens skipped",
			aliases: map[string]string{"x": "a--b-"},
			field:   "x",
			want:    "aB",
		},
		{
			name:    "other fields unaffected",
			aliases: map[string]string{"x": "a-b"},
			field:   "y",
			want:    "y",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tbl Table
			if tt.aliases != nil {
				tbl.Register(tt.aliases)
			}
			if got := tbl.ToWire(tt.field); got != tt.want {
				t.Errorf("ToWire(%q) = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestRegisterLastWins(t *testing.T) {
	var tbl Table
	tbl.Register(map[string]string{"f": "first-name"})
	tbl.Register(map[string]string{"f": "second-name", "g": "gee"})

	if got := tbl.ToWire("f"); got != "secondName" {
		t.Errorf("ToWire(f) = %q, want secondName", got)
	}
	if got := tbl.ToWire("g"); got != "gee" {
		t.Errorf("ToWire(g) = %q, want gee", got)
	}
	// The replaced alias no longer resolves.
	if got := tbl.FromWire("firstName"); got != "firstName" {
		t.Errorf("FromWire(firstName) = %q, want passthrough", got)
	}
	if got := len(tbl.Aliases()); got != 2 {
		t.Errorf("Aliases() has %d entries, want 2", got)
	}
}

func TestRegisterKeepsSharedWireName(t *testing.T) {
	var tbl Table
	tbl.Register(map[string]string{"a": "shared-name"})
	tbl.Register(map[string]string{"b": "shared-name"})
	tbl.Register(map[string]string{"a": "own-name"})

	if got := tbl.FromWire("sharedName"); got != "b" {
		t.Errorf("FromWire(sharedName) = %q, want b", got)
	}
	if got := tbl.FromWire("ownName"); got != "a" {
		t.Errorf("FromWire(ownName) = %q, want a", got)
	}
}

func TestFromWire(t *testing.T) {
	var tbl Table
	tbl.Register(map[string]string{"my_field": "my-field-alias"})

	if got := tbl.FromWire("myFieldAlias"); got != "my_field" {
		t.Errorf("FromWire = %q, want my_field", got)
	}
	if got := tbl.FromWire("unknown"); got != "unknown" {
		t.Errorf("FromWire(unknown) = %q", got)
	}
}

func TestDefaultTable(t *testing.T) {
	Register(map[string]string{"wirename_test_field": "wire-test"})
	if got := ToWire("wirename_test_field"); got != "wireTest" {
		t.Errorf("ToWire = %q", got)
	}
	if got := FromWire("wireTest"); got != "wirename_test_field" {
		t.Errorf("FromWire = %q", got)
	}
}

func TestConcurrentRegisterAndRead(t *testing.T) {
	var tbl Table
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tbl.Register(map[string]string{"a": "b-c"})
		}()
		go func() {
			defer wg.Done()
			_ = tbl.ToWire("a")
		}()
	}
	wg.Wait()
	if got := tbl.ToWire("a"); got != "bC" {
		t.Errorf("ToWire(a) = %q", got)
	}
}
