package search

import "strings"

// KeywordScore computes the lexical overlap score between query and document
// tokens, in [0,1]. The base score is the fraction of distinct query tokens
// present in the document: extra document terms are ignored, missing query
// terms penalized. If the space-joined query string appears verbatim inside
// the space-joined document string, the score is 1.0 regardless of overlap.
func KeywordScore(queryTokens, docTokens []string) float64 {
	if len(queryTokens) == 0 || len(docTokens) == 0 {
		return 0
	}

	queryText := strings.Join(queryTokens, " ")
	docText := strings.Join(docTokens, " ")
	if strings.Contains(docText, queryText) {
		return 1.0
	}

	querySet := make(map[string]struct{}, len(queryTokens))
	for _, t := range queryTokens {
		querySet[t] = struct{}{}
	}
	docSet := make(map[string]struct{}, len(docTokens))
	for _, t := range docTokens {
		docSet[t] = struct{}{}
	}

	matches := 0
	for t := range querySet {
		if _, ok := docSet[t]; ok {
			matches++
		}
	}

	return float64(matches) / float64(len(querySet))
}
