package service

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/microcosm-cc/bluemonday"
)

var markupPolicy = bluemonday.StrictPolicy()

// plainText strips markup from free-form text such as remarks and feedback.
func plainText(value string) string {
	return strings.TrimSpace(html.UnescapeString(markupPolicy.Sanitize(value)))
}

// ensureTextContent rejects submission content that is not readable text.
func ensureTextContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return badInput("content is required")
	}
	if !utf8.ValidString(content) {
		return badInput("content must be valid UTF-8 text")
	}

	for detected := mimetype.Detect([]byte(content)); detected != nil; detected = detected.Parent() {
		if detected.Is("text/plain") {
			return nil
		}
	}
	return badInput("content must be text")
}
