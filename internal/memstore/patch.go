package memstore

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Tri distinguishes, for a nullable field on a patch, whether the field was
// left out of the request entirely, set explicitly to null, or set to a
// concrete value. A generic struct decode collapses the first two cases;
// this type is built instead by inspecting the raw object's keys.
type Tri struct {
	set   bool
	value *string
}

// Unchanged is the zero value: the field was absent from the patch.
var Unchanged = Tri{}

// TriNull represents the field explicitly set to null (clear it).
func TriNull() Tri { return Tri{set: true, value: nil} }

// TriValue represents the field explicitly set to v.
func TriValue(v string) Tri { return Tri{set: true, value: &v} }

func (t Tri) IsUnchanged() bool { return !t.set }
func (t Tri) IsNull() bool      { return t.set && t.value == nil }
func (t Tri) Value() (string, bool) {
	if t.set && t.value != nil {
		return *t.value, true
	}
	return "", false
}

// Patch carries the fields a memory_patch request may touch. Every field
// is optional; Content/Kind/Tags/Deleted use plain pointers because they
// are not nullable (the wire schema never sends `null` for them), while
// SessionID/SubagentID need the three-valued Tri to distinguish "leave
// alone" from "clear".
type Patch struct {
	Content    *string
	Kind       *string
	Tags       *[]string
	SessionID  Tri
	SubagentID Tri
	Deleted    *bool
	UpdatedAt  *int64
}

// IsEmpty reports whether no field was set, the case the handler layer
// must reject as invalid_request.
func (p Patch) IsEmpty() bool {
	return p.Content == nil && p.Kind == nil && p.Tags == nil &&
		p.SessionID.IsUnchanged() && p.SubagentID.IsUnchanged() &&
		p.Deleted == nil && p.UpdatedAt == nil
}

// UnmarshalJSON inspects the raw object's keys directly, rather than
// decoding into a struct of pointers, so a present `"session_id": null`
// key is distinguishable from the key being absent altogether.
func (p *Patch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["content"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return err
		}
		p.Content = &s
	}
	if v, ok := raw["kind"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return err
		}
		p.Kind = &s
	}
	if v, ok := raw["tags"]; ok {
		var t []string
		if err := json.Unmarshal(v, &t); err != nil {
			return err
		}
		p.Tags = &t
	}
	if v, ok := raw["deleted"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			return err
		}
		p.Deleted = &b
	}
	if v, ok := raw["updated_at"]; ok {
		var n int64
		if err := json.Unmarshal(v, &n); err != nil {
			return err
		}
		p.UpdatedAt = &n
	}
	if v, ok := raw["session_id"]; ok {
		p.SessionID = triFromRaw(v)
	}
	if v, ok := raw["subagent_id"]; ok {
		p.SubagentID = triFromRaw(v)
	}
	return nil
}

// EncodeMsgpack and DecodeMsgpack give Patch the same raw-key-inspection
// three-valued behavior over the MessagePack wire codec as MarshalJSON and
// UnmarshalJSON give it over JSON; a generic struct-of-pointers encoding
// would collapse "absent" and "explicit null" on either codec.
func (p Patch) EncodeMsgpack(enc *msgpack.Encoder) error {
	raw := map[string]interface{}{}
	if p.Content != nil {
		raw["content"] = *p.Content
	}
	if p.Kind != nil {
		raw["kind"] = *p.Kind
	}
	if p.Tags != nil {
		raw["tags"] = *p.Tags
	}
	if p.Deleted != nil {
		raw["deleted"] = *p.Deleted
	}
	if p.UpdatedAt != nil {
		raw["updated_at"] = *p.UpdatedAt
	}
	if !p.SessionID.IsUnchanged() {
		if v, ok := p.SessionID.Value(); ok {
			raw["session_id"] = v
		} else {
			raw["session_id"] = nil
		}
	}
	if !p.SubagentID.IsUnchanged() {
		if v, ok := p.SubagentID.Value(); ok {
			raw["subagent_id"] = v
		} else {
			raw["subagent_id"] = nil
		}
	}
	return enc.Encode(raw)
}

func (p *Patch) DecodeMsgpack(dec *msgpack.Decoder) error {
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	asString := func(v interface{}) (string, error) {
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("memstore: patch field: expected string, got %T", v)
		}
		return s, nil
	}

	if v, ok := raw["content"]; ok {
		s, err := asString(v)
		if err != nil {
			return err
		}
		p.Content = &s
	}
	if v, ok := raw["kind"]; ok {
		s, err := asString(v)
		if err != nil {
			return err
		}
		p.Kind = &s
	}
	if v, ok := raw["tags"]; ok {
		items, ok := v.([]interface{})
		if !ok {
			return fmt.Errorf("memstore: patch field tags: expected array, got %T", v)
		}
		tags := make([]string, 0, len(items))
		for _, it := range items {
			s, err := asString(it)
			if err != nil {
				return err
			}
			tags = append(tags, s)
		}
		p.Tags = &tags
	}
	if v, ok := raw["deleted"]; ok {
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("memstore: patch field deleted: expected bool, got %T", v)
		}
		p.Deleted = &b
	}
	if v, ok := raw["updated_at"]; ok {
		n, err := asInt64(v)
		if err != nil {
			return err
		}
		p.UpdatedAt = &n
	}
	if v, ok := raw["session_id"]; ok {
		p.SessionID = triFromMsgpackValue(v)
	}
	if v, ok := raw["subagent_id"]; ok {
		p.SubagentID = triFromMsgpackValue(v)
	}
	return nil
}

func asInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("memstore: patch field: expected integer, got %T", v)
	}
}

func triFromMsgpackValue(v interface{}) Tri {
	if v == nil {
		return TriNull()
	}
	if s, ok := v.(string); ok {
		return TriValue(s)
	}
	return Unchanged
}

func triFromRaw(v json.RawMessage) Tri {
	if string(v) == "null" {
		return TriNull()
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return Unchanged
	}
	return TriValue(s)
}

// MarshalJSON round-trips a Patch back to the same three-state wire shape.
func (p Patch) MarshalJSON() ([]byte, error) {
	raw := map[string]any{}
	if p.Content != nil {
		raw["content"] = *p.Content
	}
	if p.Kind != nil {
		raw["kind"] = *p.Kind
	}
	if p.Tags != nil {
		raw["tags"] = *p.Tags
	}
	if p.Deleted != nil {
		raw["deleted"] = *p.Deleted
	}
	if p.UpdatedAt != nil {
		raw["updated_at"] = *p.UpdatedAt
	}
	if !p.SessionID.IsUnchanged() {
		if v, ok := p.SessionID.Value(); ok {
			raw["session_id"] = v
		} else {
			raw["session_id"] = nil
		}
	}
	if !p.SubagentID.IsUnchanged() {
		if v, ok := p.SubagentID.Value(); ok {
			raw["subagent_id"] = v
		} else {
			raw["subagent_id"] = nil
		}
	}
	return json.Marshal(raw)
}
