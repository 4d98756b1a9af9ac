package entity

import (
	"strings"
	"testing"
	"time"
)

type todo struct {
	BaseEntity
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

type legacyRecord struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

func TestTempID(t *testing.T) {
	now := time.UnixMilli(1718000000000)
	got := TempID(now)
	if got != "temp-1718000000000" {
		t.Errorf("TempID = %q", got)
	}
	if !strings.HasPrefix(got, "temp-") {
		t.Errorf("TempID %q must carry the temp- prefix", got)
	}
}

func TestIDOf(t *testing.T) {
	tests := []struct {
		name   string
		record any
		want   ID
		ok     bool
	}{
		{"embedded envelope", todo{BaseEntity: BaseEntity{ID: "t1"}}, "t1", true},
		{"pointer to struct", &todo{BaseEntity: BaseEntity{ID: "t2"}}, "t2", true},
		{"lowercase d field", legacyRecord{Id: "l1"}, "l1", true},
		{"empty id", todo{}, "", true},
		{"nil pointer", (*todo)(nil), "", false},
		{"not a struct", "plain string", "", false},
		{"struct without id", struct{ Name string }{"n"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := IDOf(tt.record)
			if got != tt.want || ok != tt.ok {
				t.Errorf("IDOf() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestWithID(t *testing.T) {
	original := todo{BaseEntity: BaseEntity{ID: "old"}, Title: "buy milk"}

	got := WithID(original, "new")
	if id, _ := IDOf(got); id != "new" {
		t.Errorf("id = %q, want new", id)
	}
	if got.Title != "buy milk" {
		t.Error("other fields must survive")
	}
	if original.ID != "old" {
		t.Error("caller's record must not be mutated")
	}
}

func TestWithID_PointerDoesNotMutateCaller(t *testing.T) {
	original := &todo{BaseEntity: BaseEntity{ID: "old"}}
	got := WithID(original, "new")
	if got.ID != "new" {
		t.Errorf("clone id = %q, want new", got.ID)
	}
	if original.ID != "old" {
		t.Errorf("caller's pointee mutated to %q", original.ID)
	}
	if got == original {
		t.Error("must return a distinct pointer")
	}
}

func TestWithID_NoIDField(t *testing.T) {
	rec := struct{ Name string }{"n"}
	got := WithID(rec, "x")
	if got != rec {
		t.Error("record without an ID field must pass through unchanged")
	}
}

func TestWithTimestamps(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	got := WithTimestamps(todo{}, created, updated)
	if !got.CreatedAt.Equal(created) || !got.UpdatedAt.Equal(updated) {
		t.Errorf("timestamps = (%v, %v)", got.CreatedAt, got.UpdatedAt)
	}
}

func TestWithTimestamps_ZeroCreatedPreserved(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rec := todo{BaseEntity: BaseEntity{CreatedAt: created}}

	got := WithTimestamps(rec, time.Time{}, later)
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, must be preserved on update", got.CreatedAt)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, later)
	}
}

func TestMergePatch(t *testing.T) {
	rec := todo{
		BaseEntity: BaseEntity{ID: "t1"},
		Title:      "original",
		Done:       false,
	}

	got, err := MergePatch(rec, map[string]any{"done": true})
	if err != nil {
		t.Fatalf("MergePatch() error: %v", err)
	}
	if !got.Done {
		t.Error("patched field must change")
	}
	if got.Title != "original" || got.ID != "t1" {
		t.Errorf("unpatched fields must be preserved, got %+v", got)
	}
}

func TestMergePatch_UnknownKeysIgnored(t *testing.T) {
	got, err := MergePatch(todo{Title: "a"}, map[string]any{"nope": 1})
	if err != nil {
		t.Fatalf("MergePatch() error: %v", err)
	}
	if got.Title != "a" {
		t.Errorf("Title = %q", got.Title)
	}
}

func TestMergePatch_ReplacesByJSONTag(t *testing.T) {
	got, err := MergePatch(legacyRecord{Id: "l1", Name: "old"}, map[string]any{"name": "new"})
	if err != nil {
		t.Fatalf("MergePatch() error: %v", err)
	}
	if got.Name != "new" || got.Id != "l1" {
		t.Errorf("got %+v", got)
	}
}
