package tasks

// Task is a single task record.
type Task struct {
	ID         int    `json:"task_id" yaml:"task_id" toml:"task_id"`
	Title      string `json:"task_title" yaml:"task_title" toml:"task_title"`
	Desc       string `json:"task_desc" yaml:"task_desc" toml:"task_desc"`
	IsFinished bool   `json:"is_finished" yaml:"is_finished" toml:"is_finished"`
}

// TaskPatch is an update payload. Nil fields are left unchanged.
// ID is accepted but never used to relocate or rename a record.
type TaskPatch struct {
	ID         *int    `json:"task_id,omitempty"`
	Title      *string `json:"task_title,omitempty"`
	Desc       *string `json:"task_desc,omitempty"`
	IsFinished *bool   `json:"is_finished,omitempty"`
}

// apply overwrites fields of t from the patch. An empty title is ignored;
// an empty description is a valid overwrite.
func (p TaskPatch) apply(t *Task) {
	if p.Title != nil && *p.Title != "" {
		t.Title = *p.Title
	}
	if p.Desc != nil {
		t.Desc = *p.Desc
	}
	if p.IsFinished != nil {
		t.IsFinished = *p.IsFinished
	}
}

// Summary counts the tasks in a store.
type Summary struct {
	Total    int `json:"total"`
	Finished int `json:"finished"`
	Open     int `json:"open"`
}
