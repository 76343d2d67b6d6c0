package store

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// AnswerKind discriminates the value stored in an AnswerValue.
type AnswerKind int

const (
	AnswerAbsent AnswerKind = iota
	AnswerText
	AnswerNumber
	AnswerBool
	AnswerList
)

// AnswerValue is a tagged union over the shapes a questionnaire answer can
// take: text, number, boolean, ordered list of text, or absent. The zero
// value is absent.
type AnswerValue struct {
	Kind   AnswerKind
	Text   string
	Number float64
	Bool   bool
	List   []string
}

func TextAnswer(s string) AnswerValue    { return AnswerValue{Kind: AnswerText, Text: s} }
func NumberAnswer(n float64) AnswerValue { return AnswerValue{Kind: AnswerNumber, Number: n} }
func BoolAnswer(b bool) AnswerValue      { return AnswerValue{Kind: AnswerBool, Bool: b} }
func ListAnswer(items []string) AnswerValue {
	return AnswerValue{Kind: AnswerList, List: items}
}

// IsAbsent reports whether the value carries no answer. An empty text
// answer counts as absent so that blank form fields and missing keys render
// identically.
func (v AnswerValue) IsAbsent() bool {
	switch v.Kind {
	case AnswerAbsent:
		return true
	case AnswerText:
		return v.Text == ""
	case AnswerList:
		return len(v.List) == 0
	default:
		return false
	}
}

// UnmarshalJSON accepts the shapes the document store delivers: string,
// number, boolean, array of values, or null. Anything unrecognized decodes
// as absent rather than failing the record.
func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		*v = AnswerValue{}
		return nil
	}
	*v = answerFromAny(raw)
	return nil
}

// MarshalJSON writes the underlying value back in its natural JSON shape.
func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case AnswerText:
		return json.Marshal(v.Text)
	case AnswerNumber:
		return json.Marshal(v.Number)
	case AnswerBool:
		return json.Marshal(v.Bool)
	case AnswerList:
		if v.List == nil {
			return json.Marshal([]string{})
		}
		return json.Marshal(v.List)
	default:
		return []byte("null"), nil
	}
}

func answerFromAny(raw any) AnswerValue {
	switch val := raw.(type) {
	case nil:
		return AnswerValue{}
	case string:
		return TextAnswer(val)
	case float64:
		return NumberAnswer(val)
	case bool:
		return BoolAnswer(val)
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			items = append(items, stringifyAnswerItem(item))
		}
		return ListAnswer(items)
	default:
		return AnswerValue{}
	}
}

func stringifyAnswerItem(item any) string {
	switch val := item.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
