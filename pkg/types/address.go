package types

// Address is the structured delivery address captured at checkout. Stored as
// a JSON blob on the order so later zone edits never rewrite history.
type Address struct {
	Line1     string `json:"line1"`
	Line2     string `json:"line2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	Landmark  string `json:"landmark,omitempty"`
	Directions string `json:"directions,omitempty"`
}
