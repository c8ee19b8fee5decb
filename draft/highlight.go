package draft

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Highlights remembers which questions changed since the last save. A
// question is identified by the hash of its content, not its position, so
// moving a question neither marks nor unmarks it.
type Highlights struct {
	marks map[uint64]struct{}
}

func NewHighlights() *Highlights {
	return &Highlights{marks: make(map[uint64]struct{})}
}

func (h *Highlights) MarkChanged(q *Question) {
	h.marks[ContentHash(q)] = struct{}{}
}

func (h *Highlights) IsMarked(q *Question) bool {
	_, ok := h.marks[ContentHash(q)]
	return ok
}

func (h *Highlights) ClearAllMarks() {
	h.marks = make(map[uint64]struct{})
}

func (h *Highlights) Len() int { return len(h.marks) }

// Hashes lists the marked content hashes, for persisting a session.
func (h *Highlights) Hashes() []uint64 {
	out := make([]uint64, 0, len(h.marks))
	for k := range h.marks {
		out = append(out, k)
	}
	return out
}

// MarkHash marks a hash previously returned by Hashes.
func (h *Highlights) MarkHash(hash uint64) {
	h.marks[hash] = struct{}{}
}

// ContentHash digests the type, text and body of q. Every field is length
// prefixed so adjacent fields cannot run into each other.
func ContentHash(q *Question) uint64 {
	d := xxhash.New()
	field := func(s string) {
		d.WriteString(strconv.Itoa(len(s)))
		d.WriteString(":")
		d.WriteString(s)
	}

	field(strconv.Itoa(int(q.Type)))
	field(q.Text)
	switch b := q.Body.(type) {
	case Choice:
		field("choice")
		for _, o := range b.Options {
			field(o)
		}
	case Scale:
		field("scale")
		field(strconv.Itoa(b.EffectiveMax()))
		field(b.LabelLeft)
		field(b.LabelRight)
	}
	return d.Sum64()
}
