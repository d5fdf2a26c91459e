package llm

import "encoding/base64"

// Image is an inline picture attached to the user message.
type Image struct {
	MIME string
	Data []byte
}

// DataURL renders the image as data:<mime>;base64,<payload>.
func (i Image) DataURL() string {
	return "data:" + i.MIME + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Prompt is a single-turn request: system instructions plus one user message.
type Prompt struct {
	System string
	User   string
	Images []Image
}

// Reply is the unstructured text returned by the upstream API.
type Reply struct {
	Text  string
	Model string
}
