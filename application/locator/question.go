package locator

import (
	"quiz_solver/application/classifier"
	"quiz_solver/application/generation"
	"quiz_solver/domain/entities"
	"quiz_solver/domain/interfaces"
)

// Question is a classified component whose container is rendered in the
// current page generation.
type Question struct {
	ID        string
	Type      entities.QuestionType
	Component entities.Component
	Solvable  bool

	container interfaces.Element
	token     generation.Token
	bindings  Bindings
}

// Bindings are the live nodes resolved for a question. They belong to the
// generation the question was scanned in.
type Bindings struct {
	Trigger   interfaces.Element // prompt clicked to reveal the answers
	Basic     []BasicBinding
	Pairs     []PairBinding
	Dropdowns []DropdownBinding
}

// BasicBinding is the input and its clickable label for one item.
type BasicBinding struct {
	Item  int
	Input interfaces.Element
	Label interfaces.Element
}

// PairBinding is the question half and answer half of one matching item.
type PairBinding struct {
	Item     int
	Question interfaces.Element
	Answer   interfaces.Element
}

// DropdownBinding is one independently answered sub-question.
type DropdownBinding struct {
	Item    int
	Trigger interfaces.Element
	Option  interfaces.Element
}

// NewQuestion classifies comp and ties it to its rendered container.
func NewQuestion(comp entities.Component, container interfaces.Element, tok generation.Token) *Question {
	return &Question{
		ID:        comp.ID,
		Type:      classifier.Classify(comp),
		Component: comp,
		container: container,
		token:     tok,
	}
}

func (q *Question) Items() []entities.Item {
	return q.Component.Items
}

func (q *Question) Token() generation.Token {
	return q.token
}

// Container returns the question root, or generation.ErrStale once the page
// structure changed.
func (q *Question) Container() (interfaces.Element, error) {
	if err := q.token.Check(); err != nil {
		return nil, err
	}
	return q.container, nil
}

// Bindings returns the resolved nodes, or generation.ErrStale once the page
// structure changed.
func (q *Question) Bindings() (*Bindings, error) {
	if err := q.token.Check(); err != nil {
		return nil, err
	}
	return &q.bindings, nil
}
