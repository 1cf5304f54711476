package patch

import "fmt"

// OpKind enumerates the observable edits a patch run performs.
type OpKind uint8

const (
	OpCreateElement OpKind = iota + 1
	OpCreateText
	OpCreateComment
	OpInsert
	OpMove
	OpRemove
	OpSetText
	OpPatch
)

func (k OpKind) String() string {
	switch k {
	case OpCreateElement:
		return "create-element"
	case OpCreateText:
		return "create-text"
	case OpCreateComment:
		return "create-comment"
	case OpInsert:
		return "insert"
	case OpMove:
		return "move"
	case OpRemove:
		return "remove"
	case OpSetText:
		return "set-text"
	case OpPatch:
		return "patch"
	}
	return "unknown"
}

func (k OpKind) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", k.String())), nil
}

// Op is one traced patch edit, emitted to the trace function when one is
// installed. Devtools streams these to inspectors.
type Op struct {
	Kind OpKind `json:"kind"`
	Tag  string `json:"tag,omitempty"`
	Text string `json:"text,omitempty"`
}

// TraceFunc receives every Op a patcher performs.
type TraceFunc func(Op)

func (p *Patcher) emit(op Op) {
	if p.trace != nil {
		p.trace(op)
	}
}
