package lexical

import (
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	_ "github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	_ "github.com/blevesearch/bleve/v2/analysis/tokenizer/whitespace"
)

// analyzerName is the single analyzer used for every indexed field: plain
// whitespace splitting followed by lowercasing. No stemming, no stopword
// removal — the spec requires tokens(s) == tokens(s.lower()) and good
// behavior on non-English text, both of which a language-aware analyzer
// would compromise.
const analyzerName = "vault_whitespace"

// buildMapping constructs the bleve index mapping: a single analyzer
// applied uniformly to every field, since the token stream rules in the
// spec's data model don't vary by field.
func buildMapping() (*bleve.IndexMapping, error) {
	mapping := bleve.NewIndexMapping()
	if err := mapping.AddCustomAnalyzer(analyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": "whitespace",
		"token_filters": []string{
			"to_lower",
		},
	}); err != nil {
		return nil, err
	}
	mapping.DefaultAnalyzer = analyzerName

	doc := bleve.NewDocumentMapping()
	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = analyzerName
	doc.AddFieldMappingsAt("content", contentField)
	mapping.DefaultMapping = doc

	return mapping, nil
}

// Tokenize exposes the same whitespace+lowercase rule outside of bleve for
// callers that need the raw token stream (the tag-boost step's query-token
// comparison, and the query determinism tests in §8).
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	tokens := make([]string, len(fields))
	for i, f := range fields {
		tokens[i] = strings.ToLower(f)
	}
	return tokens
}
