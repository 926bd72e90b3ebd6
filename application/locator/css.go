package locator

import (
	"fmt"
	"strings"
)

// cssEscape escapes an identifier for use in a CSS selector, following the
// CSSOM serialize-an-identifier rules.
func cssEscape(ident string) string {
	runes := []rune(ident)
	var b strings.Builder
	for i, r := range runes {
		switch {
		case r == 0:
			b.WriteRune('�')
		case (r >= 0x01 && r <= 0x1F) || r == 0x7F:
			fmt.Fprintf(&b, "\\%x ", r)
		case i == 0 && r >= '0' && r <= '9':
			fmt.Fprintf(&b, "\\%x ", r)
		case i == 1 && r >= '0' && r <= '9' && runes[0] == '-':
			fmt.Fprintf(&b, "\\%x ", r)
		case i == 0 && r == '-' && len(runes) == 1:
			b.WriteString(`\-`)
		case r >= 0x80 || r == '-' || r == '_' ||
			(r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z'):
			b.WriteRune(r)
		default:
			b.WriteRune('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ContainerSelector selects the rendered container of a component.
func ContainerSelector(componentID string) string {
	return "." + cssEscape(componentID)
}

func basicInputSelector(componentID string, i int) string {
	return fmt.Sprintf("#%s", cssEscape(fmt.Sprintf("%s-%d-input", componentID, i)))
}

func basicLabelSelector(componentID string, i int) string {
	return fmt.Sprintf("#%s", cssEscape(fmt.Sprintf("%s-%d-label", componentID, i)))
}

func matchTargetSelector(i int) string {
	return fmt.Sprintf(`[data-id="%d"]`, i)
}

func dropdownItemSelector(i int) string {
	return fmt.Sprintf(`[index="%d"]`, i)
}

func dropdownOptionSelector(optionIndex int) string {
	return fmt.Sprintf("#dropdown__item-index-%d", optionIndex)
}

// Selectors of layouts the solver resolves lazily.
const (
	YesNoImageSelector  = ".img_question"
	YesButtonSelector   = ".user_selects_yes"
	NoButtonSelector    = ".user_selects_no"
	FillBlankSelector   = ".fillblanks__item"
	BlankOptionSelector = ".dropdown__item"
	TableRowSelector    = "tbody tr"
	TableOptionSelector = `[role="option"]`
)

// OpenTextPromptSelector selects the movable prompt of an open-text item.
func OpenTextPromptSelector(componentID string, i int) string {
	return "#" + cssEscape(fmt.Sprintf("%s-option-%d", componentID, i))
}

// OpenTextButtonSelector selects the control that opens an open-text item.
func OpenTextButtonSelector(i int) string {
	return fmt.Sprintf(".current-item-%d", i)
}

// DataTargetSelector selects the input placed at position.
func DataTargetSelector(position string) string {
	return fmt.Sprintf(`[data-target="%s"]`, strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(position))
}
