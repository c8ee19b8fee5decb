package draft

import "testing"

func TestContentHash(t *testing.T) {
	base := &Question{Type: MultipleChoice, Text: "Employed?", Body: Choice{Options: []string{"yes", "no"}}}

	same := base.Clone()
	same.Required = true
	same.RestrictionRequired = true
	if ContentHash(base) != ContentHash(same) {
		t.Error("hash depends on flags")
	}

	tests := []struct {
		name string
		q    *Question
	}{
		{"text", &Question{Type: MultipleChoice, Text: "Employed!", Body: Choice{Options: []string{"yes", "no"}}}},
		{"type", &Question{Type: Checkbox, Text: "Employed?", Body: Choice{Options: []string{"yes", "no"}}}},
		{"options", &Question{Type: MultipleChoice, Text: "Employed?", Body: Choice{Options: []string{"no", "yes"}}}},
		{"boundaries", &Question{Type: MultipleChoice, Text: "Employed?", Body: Choice{Options: []string{"yesno"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if ContentHash(base) == ContentHash(tt.q) {
				t.Errorf("hash did not change")
			}
		})
	}
}

func TestContentHashScaleDefault(t *testing.T) {
	unset := &Question{Type: LinearScale, Text: "Rate", Body: Scale{}}
	five := &Question{Type: LinearScale, Text: "Rate", Body: Scale{Max: 5}}
	if ContentHash(unset) != ContentHash(five) {
		t.Error("unset scale max hashes differently from the default")
	}
}

func TestHighlights(t *testing.T) {
	d := New()
	newSection(t, d, "S")
	insert(t, d, 0, &Question{Type: Paragraph, Text: "first"})
	insert(t, d, 0, &Question{Type: Paragraph, Text: "second"})

	if !d.IsMarked(0, 0) || !d.IsMarked(0, 1) {
		t.Fatal("inserted questions are not marked")
	}

	d.Highlights().ClearAllMarks()
	if d.IsMarked(0, 0) || d.Highlights().Len() != 0 {
		t.Fatal("ClearAllMarks left marks behind")
	}

	if err := d.SetQuestionText(0, 1, "second, edited"); err != nil {
		t.Fatal(err)
	}
	if !d.IsMarked(0, 1) || d.IsMarked(0, 0) {
		t.Errorf("marks after edit: (0,0)=%v (0,1)=%v", d.IsMarked(0, 0), d.IsMarked(0, 1))
	}

	// the mark follows the content
	if _, err := d.ReorderQuestion(0, 1, 0); err != nil {
		t.Fatal(err)
	}
	if !d.IsMarked(0, 0) || d.IsMarked(0, 1) {
		t.Errorf("marks after reorder: (0,0)=%v (0,1)=%v", d.IsMarked(0, 0), d.IsMarked(0, 1))
	}
	if d.IsMarked(3, 0) {
		t.Error("out of range position is marked")
	}
}
