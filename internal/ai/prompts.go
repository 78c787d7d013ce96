package ai

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/tag_extraction.md
var tagExtractionPromptRaw string

// TagExtractionTemplate is the parsed prompt template for tag suggestion.
// Parsed once at package init; reused on every SuggestTags call.
var TagExtractionTemplate = template.Must(template.New("tag_extraction").Parse(tagExtractionPromptRaw))
