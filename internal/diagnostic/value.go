package diagnostic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type valueKind uint8

const (
	valueNull valueKind = iota
	valueText
	valueBool
)

// Value is an answer as it travels to and from the grading service:
// text, boolean or absent. The zero Value is null.
type Value struct {
	kind valueKind
	text string
	b    bool
}

func TextValue(s string) Value { return Value{kind: valueText, text: s} }

func BoolValue(b bool) Value { return Value{kind: valueBool, b: b} }

func (v Value) IsNull() bool { return v.kind == valueNull }

// Text returns the value when it is text.
func (v Value) Text() (string, bool) { return v.text, v.kind == valueText }

// Bool returns the value when it is a boolean.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == valueBool }

func (v Value) String() string {
	switch v.kind {
	case valueText:
		return v.text
	case valueBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case valueText:
		return json.Marshal(v.text)
	case valueBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = Value{}
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TextValue(s)
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*v = BoolValue(data[0] == 't')
	default:
		return fmt.Errorf("answer value must be string, boolean or null, got %s", data)
	}
	return nil
}
