package handle

import (
	"encoding/json"
	"io"
	"net/http"
)

type ArticleRequest struct {
	Topic  *string `json:"topic"`
	Engine string  `json:"engine"`
}

func (h *Handle) GenerateArticle(w http.ResponseWriter, r *http.Request) {
	if !postOnly(w, r) {
		return
	}
	var req ArticleRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	out, err := h.gen.Article(ctx, engineName(r, req.Engine), topicOf(req))
	if err != nil {
		fail(w, r, "article", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// topicOf keeps "topic":"" apart from a missing key: the service treats ""
// as absent and whitespace as blank.
func topicOf(req ArticleRequest) string {
	switch {
	case req.Topic == nil:
		return ""
	case *req.Topic == "":
		return " "
	}
	return *req.Topic
}

// engineName prefers the query parameter over the body field.
func engineName(r *http.Request, body string) string {
	if q := r.URL.Query().Get("engine"); q != "" {
		return q
	}
	return body
}
