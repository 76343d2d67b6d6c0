package store

import (
	"encoding/json"
	"testing"
)

func TestAnswerValueDecodeShapes(t *testing.T) {
	raw := []byte(`{
		"meta_nome": "Mario Rossi",
		"1.1": "SI",
		"1.3": 3,
		"2.2": true,
		"4.1": ["riflessi", "sfarfallio"],
		"6.2_note": null
	}`)

	var answers map[string]AnswerValue
	if err := json.Unmarshal(raw, &answers); err != nil {
		t.Fatalf("unmarshal answers: %v", err)
	}

	if got := answers["meta_nome"]; got.Kind != AnswerText || got.Text != "Mario Rossi" {
		t.Errorf("meta_nome = %+v", got)
	}
	if got := answers["1.3"]; got.Kind != AnswerNumber || got.Number != 3 {
		t.Errorf("1.3 = %+v", got)
	}
	if got := answers["2.2"]; got.Kind != AnswerBool || !got.Bool {
		t.Errorf("2.2 = %+v", got)
	}
	if got := answers["4.1"]; got.Kind != AnswerList || len(got.List) != 2 {
		t.Errorf("4.1 = %+v", got)
	}
	if got := answers["6.2_note"]; !got.IsAbsent() {
		t.Errorf("null answer not absent: %+v", got)
	}
	if got := answers["9.9"]; !got.IsAbsent() {
		t.Errorf("missing key not absent: %+v", got)
	}
}

func TestAnswerValueMalformedEntryDoesNotFail(t *testing.T) {
	// A nested object is not a shape we understand; it must decode as
	// absent rather than aborting the record.
	var v AnswerValue
	if err := json.Unmarshal([]byte(`{"nested": "object"}`), &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.IsAbsent() {
		t.Errorf("unknown shape should be absent, got %+v", v)
	}
}

func TestAnswerValueRoundTripList(t *testing.T) {
	v := ListAnswer([]string{"a", "b"})
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back AnswerValue
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Kind != AnswerList || len(back.List) != 2 || back.List[0] != "a" {
		t.Errorf("round trip = %+v", back)
	}
}

func TestAnswerEmptyTextIsAbsent(t *testing.T) {
	if !TextAnswer("").IsAbsent() {
		t.Error("empty text should be absent")
	}
	if TextAnswer("NO").IsAbsent() {
		t.Error("non-empty text should not be absent")
	}
}
