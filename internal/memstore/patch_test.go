package memstore

import (
	"encoding/json"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestPatchThreeValuedJSON(t *testing.T) {
	data := []byte(`{"content":"x","session_id":null}`)
	var p Patch
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatal(err)
	}
	if !p.SessionID.IsNull() {
		t.Fatalf("expected session_id explicitly null")
	}
	if !p.SubagentID.IsUnchanged() {
		t.Fatalf("expected subagent_id untouched (absent from payload)")
	}
	if p.Content == nil || *p.Content != "x" {
		t.Fatalf("content = %v", p.Content)
	}

	data2 := []byte(`{"session_id":"abc"}`)
	var p2 Patch
	if err := json.Unmarshal(data2, &p2); err != nil {
		t.Fatal(err)
	}
	v, ok := p2.SessionID.Value()
	if !ok || v != "abc" {
		t.Fatalf("session_id value = %q ok=%v", v, ok)
	}
}

func TestPatchThreeValuedMsgpackRoundTrip(t *testing.T) {
	content := "hello"
	p := Patch{Content: &content, SessionID: TriNull(), SubagentID: TriValue("sub-1")}

	data, err := msgpack.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}

	var got Patch
	if err := msgpack.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Content == nil || *got.Content != "hello" {
		t.Fatalf("content = %v", got.Content)
	}
	if !got.SessionID.IsNull() {
		t.Fatalf("expected session_id null after round trip")
	}
	v, ok := got.SubagentID.Value()
	if !ok || v != "sub-1" {
		t.Fatalf("subagent_id = %q ok=%v", v, ok)
	}
}

func TestPatchIsEmpty(t *testing.T) {
	if !(Patch{}).IsEmpty() {
		t.Fatalf("zero-value patch must be empty")
	}
}
