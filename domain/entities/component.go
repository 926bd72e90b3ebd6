package entities

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Component is one content block served by the platform in components.json.
// Only blocks carrying items are treated as questions.
type Component struct {
	ID              string `json:"_id"`
	Kind            string `json:"_component"` // classification hint only
	Title           string `json:"title,omitempty"`
	Body            string `json:"body"`
	Items           []Item `json:"_items"`
	RavennaSourceID string `json:"ravennaSourceID,omitempty"`
	LegacySourceID  string `json:"_ravennaSourceID,omitempty"`
}

// IsQuestion reports whether the block has anything to answer.
func (c Component) IsQuestion() bool {
	return len(c.Items) > 0
}

// SourceID returns whichever provenance identifier the block carries.
func (c Component) SourceID() string {
	if c.RavennaSourceID != "" {
		return c.RavennaSourceID
	}
	return c.LegacySourceID
}

// Item is one answerable unit. Which optional fields are present decides the
// question type.
type Item struct {
	ID               FlexString   `json:"id,omitempty"`
	InternalID       FlexString   `json:"_id,omitempty"`
	Text             string       `json:"text,omitempty"`
	ShouldBeSelected bool         `json:"_shouldBeSelected,omitempty"`
	Options          OptionList   `json:"_options"`
	Question         string       `json:"question,omitempty"`
	Answer           string       `json:"answer,omitempty"`
	Graphic          *Graphic     `json:"_graphic,omitempty"`
	PreText          string       `json:"preText,omitempty"`
	PostText         string       `json:"postText,omitempty"`
	Position         []FlexString `json:"position,omitempty"`
}

// CorrectOption returns the single option marked correct. ok is false when
// zero or several options are marked.
func (i Item) CorrectOption() (opt Option, index int, ok bool) {
	index = -1
	for n, o := range i.Options.Options {
		if !o.Correct() {
			continue
		}
		if index >= 0 {
			return Option{}, -1, false
		}
		opt, index = o, n
	}
	return opt, index, index >= 0
}

// CorrectOptionIndexes lists every option index marked correct.
func (i Item) CorrectOptionIndexes() []int {
	var out []int
	for n, o := range i.Options.Options {
		if o.Correct() {
			out = append(out, n)
		}
	}
	return out
}

// Graphic is an image descriptor attached to yes/no items.
type Graphic struct {
	Alt string `json:"alt"`
	Src string `json:"src"`
}

// Option is one selectable answer of an item.
type Option struct {
	ID         FlexString `json:"id,omitempty"`
	InternalID FlexString `json:"_id,omitempty"`
	Text       string     `json:"text"`
	IsCorrect  *bool      `json:"_isCorrect,omitempty"`
}

func (o Option) Correct() bool {
	return o.IsCorrect != nil && *o.IsCorrect
}

// HasCorrectFlag reports whether the correctness flag is present at all.
func (o Option) HasCorrectFlag() bool {
	return o.IsCorrect != nil
}

// OptionList holds _options, which the platform serves either as an array or
// as a single object.
type OptionList struct {
	Options []Option
	Object  bool // served as a single object
	Defined bool // present and not null
}

func (l *OptionList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = OptionList{}
		return nil
	}
	if data[0] == '{' {
		var o Option
		if err := json.Unmarshal(data, &o); err != nil {
			return err
		}
		*l = OptionList{Options: []Option{o}, Object: true, Defined: true}
		return nil
	}
	var opts []Option
	if err := json.Unmarshal(data, &opts); err != nil {
		return err
	}
	*l = OptionList{Options: opts, Defined: true}
	return nil
}

func (l OptionList) MarshalJSON() ([]byte, error) {
	if !l.Defined {
		return []byte("null"), nil
	}
	if l.Object && len(l.Options) == 1 {
		return json.Marshal(l.Options[0])
	}
	if l.Options == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.Options)
}

// First returns the first option, if any.
func (l OptionList) First() (Option, bool) {
	if len(l.Options) == 0 {
		return Option{}, false
	}
	return l.Options[0], true
}

// FlexString accepts JSON strings and numbers alike.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		var b bool
		if berr := json.Unmarshal(data, &b); berr != nil {
			return err
		}
		*f = FlexString(strconv.FormatBool(b))
		return nil
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return strings.TrimSpace(string(f))
}
