package locator

import (
	"context"
	"io"
	"testing"

	"quiz_solver/application/generation"
	"quiz_solver/domain/entities"
	"quiz_solver/infrastructure/browser/domtest"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func correct(v bool) *bool { return &v }

func TestCSSEscape(t *testing.T) {
	cases := map[string]string{
		"c-105":  "c-105",
		"105":    `\31 05`,
		"-1a":    `-\31 a`,
		"-":      `\-`,
		"a.b":    `a\.b`,
		"a b":    `a\ b`,
		"é_x":    "é_x",
		"a\x01b": `a\1 b`,
	}
	for in, want := range cases {
		assert.Equal(t, want, cssEscape(in), in)
	}
	assert.Equal(t, `.\31 05`, ContainerSelector("105"))
}

func TestScanKeepsOnlyRenderedComponents(t *testing.T) {
	doc := domtest.NewDocument("https://example.test/quiz")
	doc.Add(".c1", domtest.New("c1"))
	doc.Add(".c3", domtest.New("c3"))

	components := []entities.Component{
		{ID: "c1", Items: []entities.Item{{ShouldBeSelected: true}}},
		{ID: "c2", Items: []entities.Item{{Question: "q", Answer: "a"}}},
		{ID: "c3", Items: []entities.Item{{Question: "q", Answer: "a"}}},
	}

	var gen generation.Counter
	qs, err := NewLocator(quietLogger()).Scan(context.Background(), doc, components, gen.Current())
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, "c1", qs[0].ID)
	assert.Equal(t, entities.QuestionBasic, qs[0].Type)
	assert.Equal(t, "c3", qs[1].ID)
	assert.Equal(t, entities.QuestionMatch, qs[1].Type)
}

func TestScanAbortsOnStaleToken(t *testing.T) {
	doc := domtest.NewDocument("https://example.test/quiz")
	var gen generation.Counter
	tok := gen.Current()
	gen.Bump()

	_, err := NewLocator(quietLogger()).Scan(context.Background(), doc, []entities.Component{{ID: "c1", Items: []entities.Item{{}}}}, tok)
	assert.ErrorIs(t, err, generation.ErrStale)
}

func basicContainer(id string, n, rendered int) *domtest.Element {
	c := domtest.New(id)
	for i := 0; i < rendered; i++ {
		input := domtest.New("input")
		c.Add(basicInputSelector(id, i), input)
		c.Add(basicLabelSelector(id, i), domtest.New("label").OnClick(domtest.Toggle(input)))
	}
	return c
}

func TestLocateBasic(t *testing.T) {
	var gen generation.Counter
	comp := entities.Component{ID: "c1", Body: "Pick two", Items: make([]entities.Item, 3)}
	container := basicContainer("c1", 3, 3)
	prompt := domtest.New("prompt")
	container.AddText("Pick two", prompt)

	q := NewQuestion(comp, container, gen.Current())
	require.NoError(t, NewLocator(quietLogger()).Locate(context.Background(), q))
	assert.True(t, q.Solvable)

	b, err := q.Bindings()
	require.NoError(t, err)
	assert.Len(t, b.Basic, 3)
	assert.Same(t, prompt, b.Trigger)
}

func TestLocateBasicPartial(t *testing.T) {
	var gen generation.Counter
	comp := entities.Component{ID: "c1", Items: make([]entities.Item, 3)}
	q := NewQuestion(comp, basicContainer("c1", 3, 2), gen.Current())

	err := NewLocator(quietLogger()).Locate(context.Background(), q)
	assert.ErrorIs(t, err, ErrPartial)
	assert.False(t, q.Solvable)
}

func TestLocateMatchNeedsBothHalves(t *testing.T) {
	var gen generation.Counter
	comp := entities.Component{ID: "m1", Items: []entities.Item{{Question: "a", Answer: "1"}, {Question: "b", Answer: "2"}}}
	container := domtest.New("m1")
	container.Add(matchTargetSelector(0), domtest.New("q0"), domtest.New("a0"))
	container.Add(matchTargetSelector(1), domtest.New("q1"))

	q := NewQuestion(comp, container, gen.Current())
	err := NewLocator(quietLogger()).Locate(context.Background(), q)
	assert.ErrorIs(t, err, ErrPartial)

	container.Add(matchTargetSelector(1), domtest.New("a1"))
	require.NoError(t, NewLocator(quietLogger()).Locate(context.Background(), q))
	b, _ := q.Bindings()
	require.Len(t, b.Pairs, 2)
	assert.Equal(t, "a1", b.Pairs[1].Answer.(*domtest.Element).String())
}

func TestLocateDropdownsBindsCorrectOption(t *testing.T) {
	var gen generation.Counter
	comp := entities.Component{ID: "d1", Items: []entities.Item{
		{Text: "Q1", Options: entities.OptionList{Defined: true, Options: []entities.Option{
			{Text: "X", IsCorrect: correct(false)},
			{Text: "Y", IsCorrect: correct(true)},
		}}},
		{Text: "Q2", Options: entities.OptionList{Defined: true, Options: []entities.Option{
			{Text: "X", IsCorrect: correct(true)},
			{Text: "Y", IsCorrect: correct(true)},
		}}},
	}}

	container := domtest.New("d1")
	sub0 := domtest.New("sub0")
	prompt0 := domtest.New("prompt0")
	optionY := domtest.New("Y")
	sub0.AddText("Q1", prompt0)
	sub0.Add(dropdownOptionSelector(1), optionY)
	sub1 := domtest.New("sub1")
	sub1.Add(dropdownOptionSelector(0), domtest.New("X"))
	container.Add(dropdownItemSelector(0), sub0)
	container.Add(dropdownItemSelector(1), sub1)

	q := NewQuestion(comp, container, gen.Current())
	require.Equal(t, entities.QuestionDropdownSelect, q.Type)

	err := NewLocator(quietLogger()).Locate(context.Background(), q)
	assert.ErrorIs(t, err, ErrPartial, "the ambiguous second item is skipped")
	assert.True(t, q.Solvable, "the bound first item is still answerable")

	b, _ := q.Bindings()
	require.Len(t, b.Dropdowns, 1)
	assert.Same(t, prompt0, b.Dropdowns[0].Trigger)
	assert.Same(t, optionY, b.Dropdowns[0].Option)
}

func TestLazyTypesOnlyNeedContainer(t *testing.T) {
	var gen generation.Counter
	comp := entities.Component{ID: "y1", Items: []entities.Item{{Graphic: &entities.Graphic{Alt: "a", Src: "s"}}}}
	q := NewQuestion(comp, domtest.New("y1"), gen.Current())

	require.NoError(t, NewLocator(quietLogger()).Locate(context.Background(), q))
	assert.True(t, q.Solvable)
}

func TestBindingsNotUsableAfterInvalidation(t *testing.T) {
	var gen generation.Counter
	comp := entities.Component{ID: "c1", Items: make([]entities.Item, 1)}
	q := NewQuestion(comp, basicContainer("c1", 1, 1), gen.Current())
	require.NoError(t, NewLocator(quietLogger()).Locate(context.Background(), q))

	gen.Bump()

	_, err := q.Bindings()
	assert.ErrorIs(t, err, generation.ErrStale)
	_, err = q.Container()
	assert.ErrorIs(t, err, generation.ErrStale)
	assert.ErrorIs(t, NewLocator(quietLogger()).Locate(context.Background(), q), generation.ErrStale)
}
