// Package classifier maps a component's item shape to a question type.
//
// Item shapes overlap in the source schema, so the rules are an ordered list
// and the first structural match wins. Classification only ever looks at the
// first item, the same way the platform renders a component from its layout.
package classifier

import (
	"quiz_solver/domain/entities"
)

type rule struct {
	questionType entities.QuestionType
	matches      func(item entities.Item) bool
}

var rules = []rule{
	{entities.QuestionDropdownSelect, func(it entities.Item) bool {
		return it.Text != "" && it.Options.Defined
	}},
	{entities.QuestionMatch, func(it entities.Item) bool {
		return it.Question != "" && it.Answer != ""
	}},
	{entities.QuestionYesNo, func(it entities.Item) bool {
		return it.Graphic != nil && it.Graphic.Alt != "" && it.Graphic.Src != ""
	}},
	{entities.QuestionOpenTextInput, func(it entities.Item) bool {
		first, ok := it.Options.First()
		return it.ID.String() != "" && it.Options.Object && ok && first.Text != ""
	}},
	{entities.QuestionFillBlanks, func(it entities.Item) bool {
		first, ok := it.Options.First()
		return it.PreText != "" && it.PostText != "" && !it.Options.Object && ok && first.Text != ""
	}},
	{entities.QuestionTableDropdown, func(it entities.Item) bool {
		first, ok := it.Options.First()
		return !it.Options.Object && ok && first.Text != "" && first.HasCorrectFlag()
	}},
}

// Classify returns the question type of a component. It is total: anything
// no rule recognises is a basic flat selectable list.
func Classify(c entities.Component) entities.QuestionType {
	return ClassifyItems(c.Items)
}

// ClassifyItems classifies by the shape of the first item.
func ClassifyItems(items []entities.Item) entities.QuestionType {
	if len(items) == 0 {
		return entities.QuestionBasic
	}
	for _, r := range rules {
		if r.matches(items[0]) {
			return r.questionType
		}
	}
	return entities.QuestionBasic
}
