package assistant

import "encoding/json"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the outcome of one question. Status, Columns, Results and Error
// are only meaningful when execution was requested.
type Envelope struct {
	QueryID  string           `json:"query_id,omitempty"`
	Question string           `json:"natural_language_query"`
	SQL      string           `json:"sql_query"`
	Status   string           `json:"status,omitempty"`
	Columns  []string         `json:"columns,omitempty"`
	Results  []map[string]any `json:"results,omitempty"`
	Error    string           `json:"error,omitempty"`
	Provider string           `json:"provider,omitempty"`
	Model    string           `json:"model,omitempty"`
	Export   string           `json:"export,omitempty"`
}

func (e Envelope) Executed() bool  { return e.Status != "" }
func (e Envelope) Succeeded() bool { return e.Status == StatusSuccess }

// MarshalJSON keeps an empty result set as [] on success instead of dropping it.
func (e Envelope) MarshalJSON() ([]byte, error) {
	type plain Envelope
	out := struct {
		plain
		Columns *[]string         `json:"columns,omitempty"`
		Results *[]map[string]any `json:"results,omitempty"`
	}{plain: plain(e)}
	if e.Succeeded() {
		columns, results := e.Columns, e.Results
		if columns == nil {
			columns = []string{}
		}
		if results == nil {
			results = []map[string]any{}
		}
		out.Columns, out.Results = &columns, &results
	}
	return json.Marshal(out)
}
