package exercises

import "encoding/json"

// Exercise is one code block as served to the lesson viewer, including the
// judge data used to score submissions.
type Exercise struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Explanation string `json:"explanation"`

	// Code is the text participants start from: the last persisted buffer,
	// falling back to the starter snippet.
	Code string `json:"code"`

	// Judge data. A non-empty ParamNames selects execute-and-compare;
	// otherwise submissions are diffed against Solution.
	ParamNames []string          `json:"paramNames,omitempty"`
	Args       []json.RawMessage `json:"args,omitempty"`
	Expected   string            `json:"expected,omitempty"`
	Solution   string            `json:"-"`
}

// Summary is the listing entry for the lobby.
type Summary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ExecMode reports whether the exercise carries a parameter contract,
// i.e. whether submissions are executed rather than text-diffed.
func (e *Exercise) ExecMode() bool {
	return len(e.ParamNames) > 0
}
