package event

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Definition describes one event type in the closed set.
type Definition struct {
	Type Type
	// Financial marks events that move money and therefore produce
	// exactly one movement row in the read model.
	Financial bool
}

// Registry validates events against the closed set of known types before
// they reach the log. Appending a type the registry does not know is always
// a programming error, never data.
type Registry struct {
	definitions map[Type]Definition
}

// NewRegistry returns a registry covering the core ledger event set.
func NewRegistry() *Registry {
	r := &Registry{definitions: map[Type]Definition{}}
	for _, def := range []Definition{
		{Type: TypeAccountOpened},
		{Type: TypeAccountUpdated},
		{Type: TypeIncomeRecorded, Financial: true},
		{Type: TypeExpenseRecorded, Financial: true},
		{Type: TypeTransferSent, Financial: true},
		{Type: TypeTransferReceived, Financial: true},
		{Type: TypeAccountArchived},
	} {
		r.definitions[def.Type] = def
	}
	return r
}

// Definition looks up the definition for a type.
func (r *Registry) Definition(t Type) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	def, ok := r.definitions[t]
	return def, ok
}

// Types returns all registered types in stable order.
func (r *Registry) Types() []Type {
	if r == nil {
		return nil
	}
	out := make([]Type, 0, len(r.definitions))
	for t := range r.definitions {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ValidateForAppend checks the envelope fields the log requires and
// normalizes the payload. Version and GlobalSeq must still be unset; the
// log owns them.
func (r *Registry) ValidateForAppend(evt Event) (Event, error) {
	if r == nil {
		return Event{}, fmt.Errorf("event registry is required")
	}
	if _, ok := r.definitions[evt.Type]; !ok {
		return Event{}, fmt.Errorf("unknown event type %q", evt.Type)
	}
	if strings.TrimSpace(string(evt.StreamType)) == "" {
		return Event{}, fmt.Errorf("stream type is required")
	}
	if strings.TrimSpace(evt.StreamID) == "" {
		return Event{}, fmt.Errorf("stream id is required")
	}
	if evt.GlobalSeq != 0 {
		return Event{}, fmt.Errorf("global sequence is assigned by the log")
	}
	if len(evt.PayloadJSON) == 0 {
		evt.PayloadJSON = []byte(`{}`)
	}
	if !json.Valid(evt.PayloadJSON) {
		return Event{}, fmt.Errorf("payload is not valid JSON")
	}
	return evt, nil
}
