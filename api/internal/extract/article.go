package extract

import "strings"

// ArticleResult is the /generate-article response contract.
type ArticleResult struct {
	Article string `json:"article"`
}

// Article is the trimmed reply text.
func Article(raw string) (ArticleResult, error) {
	a := strings.TrimSpace(raw)
	if a == "" {
		return ArticleResult{}, insufficient("article", "article", "empty reply")
	}
	return ArticleResult{Article: a}, nil
}
