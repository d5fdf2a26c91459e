package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Engine is one configured chat-completion upstream.
type Engine interface {
	Name() string
	GetModel() string
	// Chat issues exactly one blocking call and returns the model text.
	Chat(ctx context.Context, p Prompt) (Reply, error)
}

// Engines selects an Engine by name, falling back to the default one.
type Engines struct {
	def string
	m   map[string]Engine
}

func NewEngines(defaultName string) *Engines {
	return &Engines{
		def: strings.ToLower(strings.TrimSpace(defaultName)),
		m:   map[string]Engine{},
	}
}

func (e *Engines) Register(eng Engine) {
	if eng == nil {
		return
	}
	e.m[strings.ToLower(eng.Name())] = eng
}

func (e *Engines) Default() string { return e.def }

func (e *Engines) GetEngine(name string) (Engine, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "":
		name = e.def
	case "gpt":
		name = "openai"
	case "claude":
		name = "anthropic"
	}
	if eng, ok := e.m[name]; ok {
		return eng, nil
	}
	return nil, fmt.Errorf("%w %q; use one of: %s", ErrUnknownEngine, name, strings.Join(e.Names(), ", "))
}

// Names returns registered engine names in sorted order.
func (e *Engines) Names() []string {
	out := make([]string, 0, len(e.m))
	for k := range e.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
