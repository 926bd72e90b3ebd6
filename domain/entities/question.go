package entities

// QuestionType is the closed set of interaction variants the solver knows.
type QuestionType string

const (
	QuestionBasic          QuestionType = "basic"
	QuestionMatch          QuestionType = "match"
	QuestionDropdownSelect QuestionType = "dropdownSelect"
	QuestionYesNo          QuestionType = "yesNo"
	QuestionOpenTextInput  QuestionType = "openTextInput"
	QuestionFillBlanks     QuestionType = "fillBlanks"
	QuestionTableDropdown  QuestionType = "tableDropdown"
)

// QuestionTypes lists every variant in classification priority order,
// with the basic fallback last.
var QuestionTypes = []QuestionType{
	QuestionDropdownSelect,
	QuestionMatch,
	QuestionYesNo,
	QuestionOpenTextInput,
	QuestionFillBlanks,
	QuestionTableDropdown,
	QuestionBasic,
}
