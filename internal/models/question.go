package models

import (
	"encoding/json"
	"fmt"
)

// QuestionType discriminates the survey question variants.
type QuestionType string

// Survey question types.
const (
	QuestionSingleOption   QuestionType = "single_option"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTextInput      QuestionType = "text_input"
	QuestionSubForm        QuestionType = "sub_form"
)

// maxQuestionDepth bounds sub_form nesting on decode. Observed payloads nest
// one level; anything deeper than this is rejected as malformed.
const maxQuestionDepth = 8

// QuestionOption is a selectable option of a leaf question. The backend emits
// either bare strings or {id, label, value} objects; both decode here.
type QuestionOption struct {
	ID    string `json:"id,omitempty"`
	Label string `json:"label"`
	Value string `json:"value,omitempty"`
}

// UnmarshalJSON accepts both the bare-string and object option encodings.
func (o *QuestionOption) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*o = QuestionOption{Label: s, Value: s}
		return nil
	}

	type option QuestionOption
	var obj option
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode question option: %w", err)
	}
	*o = QuestionOption(obj)
	return nil
}

// Question is a survey questionnaire item delivered out-of-band over the
// chat socket. A sub_form question nests child questions in SubQuestions;
// every other type carries selectable options (or none, for text_input).
//
// The wire field names ("Question", "Question_type", "Question_data") come
// from the backend schema and are preserved as-is.
type Question struct {
	ID           string           `json:"id"`
	Text         string           `json:"Question"`
	Type         QuestionType     `json:"Question_type"`
	Options      []QuestionOption `json:"-"`
	SubQuestions []Question       `json:"-"`
	Subtitle     *string          `json:"subtitle,omitempty"`
}

// questionWire mirrors Question with Question_data left raw so the variant
// can be decoded after the type tag is known.
type questionWire struct {
	ID       string          `json:"id"`
	Text     string          `json:"Question"`
	Type     QuestionType    `json:"Question_type"`
	Data     json.RawMessage `json:"Question_data"`
	Subtitle *string         `json:"subtitle,omitempty"`
}

// UnmarshalJSON decodes the tagged variant: sub_form data is a nested
// question list, everything else is an option list.
func (q *Question) UnmarshalJSON(data []byte) error {
	return q.unmarshalDepth(data, 0)
}

func (q *Question) unmarshalDepth(data []byte, depth int) error {
	if depth > maxQuestionDepth {
		return fmt.Errorf("question nesting exceeds depth %d", maxQuestionDepth)
	}

	var wire questionWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode question: %w", err)
	}

	*q = Question{
		ID:       wire.ID,
		Text:     wire.Text,
		Type:     wire.Type,
		Subtitle: wire.Subtitle,
	}

	if len(wire.Data) == 0 || string(wire.Data) == "null" {
		return nil
	}

	if wire.Type == QuestionSubForm {
		var raws []json.RawMessage
		if err := json.Unmarshal(wire.Data, &raws); err != nil {
			return fmt.Errorf("decode sub_form data: %w", err)
		}
		subs := make([]Question, len(raws))
		for i, raw := range raws {
			if err := subs[i].unmarshalDepth(raw, depth+1); err != nil {
				return err
			}
		}
		q.SubQuestions = subs
		return nil
	}

	var opts []QuestionOption
	if err := json.Unmarshal(wire.Data, &opts); err != nil {
		return fmt.Errorf("decode question options: %w", err)
	}
	q.Options = opts
	return nil
}

// MarshalJSON writes the wire shape back, selecting Question_data from the
// variant the type tag names.
func (q Question) MarshalJSON() ([]byte, error) {
	wire := questionWire{
		ID:       q.ID,
		Text:     q.Text,
		Type:     q.Type,
		Subtitle: q.Subtitle,
	}

	var (
		data []byte
		err  error
	)
	if q.Type == QuestionSubForm {
		data, err = json.Marshal(q.SubQuestions)
	} else {
		data, err = json.Marshal(q.Options)
	}
	if err != nil {
		return nil, fmt.Errorf("encode question data: %w", err)
	}
	wire.Data = data

	return json.Marshal(wire)
}
