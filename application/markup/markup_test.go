package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	cases := map[string]string{
		"plain":                                   "plain",
		"  padded  ":                              "padded",
		"<p>Which <b>two</b> are true?</p>":       "Which two are true?",
		"Fish &amp; chips":                        "Fish & chips",
		"<p>a<script>var x = 1;</script>b</p>":    "ab",
		"<div><span>The </span>router</div>\n":    "The router",
		"":                                        "",
		"<br/>":                                   "",
	}
	for in, want := range cases {
		assert.Equal(t, want, PlainText(in), in)
	}
}
