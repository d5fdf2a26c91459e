package handle

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"study-proxy/api/internal/llm"
	"study-proxy/api/internal/service"
)

// QuestionsRequest is the JSON form of /generate-questions.
type QuestionsRequest struct {
	SyllabusText     string `json:"syllabus_text"`
	SyllabusImageB64 string `json:"syllabus_image_b64"`
	Engine           string `json:"engine"`
}

func (h *Handle) GenerateQuestions(w http.ResponseWriter, r *http.Request) {
	if !postOnly(w, r) {
		return
	}

	var (
		in     service.QuestionsInput
		engine string
	)
	if isMultipart(r) {
		if err := h.parseMultipart(w, r); err != nil {
			fail(w, r, "questions", err)
			return
		}
		defer r.MultipartForm.RemoveAll()

		img, ok, err := h.readUpload(r, "syllabus_image")
		if err != nil {
			fail(w, r, "questions", err)
			return
		}
		if ok {
			in.Image = &img
		}
		in.Text = r.FormValue("syllabus_text")
		engine = r.FormValue("engine")
	} else {
		var req QuestionsRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, h.opts.MaxUploadBytes)).Decode(&req); err != nil {
			writeError(w, r, http.StatusBadRequest, "bad json: "+err.Error())
			return
		}
		if b64 := strings.TrimSpace(req.SyllabusImageB64); b64 != "" {
			data, err := base64.StdEncoding.DecodeString(b64)
			if err != nil {
				writeError(w, r, http.StatusBadRequest, "bad syllabus_image_b64")
				return
			}
			in.Image = &llm.Image{Data: data}
		}
		in.Text = req.SyllabusText
		engine = req.Engine
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	out, err := h.gen.Questions(ctx, engineName(r, engine), in)
	if err != nil {
		fail(w, r, "questions", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
