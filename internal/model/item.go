package model

// Todo is one entry of the list as the UI holds it.
// ID is assigned by the collection on create; it is never made up locally.
type Todo struct {
	ID        string `json:"id" yaml:"id"`
	Text      string `json:"text" yaml:"text"`
	Completed bool   `json:"completed" yaml:"completed"`
}

// Fields is the stored body of a todo document.
type Fields struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Patch is a partial update. Nil fields are left alone.
type Patch struct {
	Text      *string `json:"text,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// Apply returns f with the non-nil fields of p written over it.
func (p Patch) Apply(f Fields) Fields {
	if p.Text != nil {
		f.Text = *p.Text
	}
	if p.Completed != nil {
		f.Completed = *p.Completed
	}
	return f
}

// Count reports how many items are done and how many are pending.
func Count(items []Todo) (done, pending int) {
	for _, it := range items {
		if it.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}

// SetCompleted builds the patch a toggle sends.
func SetCompleted(v bool) Patch { return Patch{Completed: &v} }
