package entity

// Reading is a value with its uncertainty as found in a document. A nil pointer
// means the element was absent; a pointer to 0 is an explicit zero.
type Reading struct {
	Value       *float64 `json:"value"`
	Uncertainty *float64 `json:"uncertainty"`
}

// Measurement holds the typed fields read from one N42 document before classification.
type Measurement struct {
	Alpha              Reading `json:"alpha"`
	Beta               Reading `json:"beta"`
	Rn222Activity      Reading `json:"rn222_activity"`
	Rn222Concentration Reading `json:"rn222_concentration"`

	RecordDateTime       *string `json:"record_datetime"`
	FlowRate             *string `json:"flow_rate"`
	DifferentialPressure *string `json:"differential_pressure"`
}
