package handle

import (
	"net/http"

	"study-proxy/api/internal/service"
)

func (h *Handle) EvaluateAnswer(w http.ResponseWriter, r *http.Request) {
	if !postOnly(w, r) {
		return
	}
	if !isMultipart(r) {
		writeError(w, r, http.StatusBadRequest, "multipart/form-data with question_image and answer_image required")
		return
	}
	if err := h.parseMultipart(w, r); err != nil {
		fail(w, r, "evaluate", err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	var in service.EvaluateInput
	var err error
	if in.Question, _, err = h.readUpload(r, "question_image"); err != nil {
		fail(w, r, "evaluate", err)
		return
	}
	if in.Answer, _, err = h.readUpload(r, "answer_image"); err != nil {
		fail(w, r, "evaluate", err)
		return
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	out, err := h.gen.Evaluate(ctx, engineName(r, r.FormValue("engine")), in)
	if err != nil {
		fail(w, r, "evaluate", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
