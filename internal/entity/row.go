package entity

// RowHeaders are the column labels of an exported row, in Row field order.
var RowHeaders = []string{
	"Alpha Activity (Bq)",
	"Beta Activity (Bq)",
	"Rn-222 Activity (Bq)",
	"Rn-222 Concentration (Bq/m^3)",
	"Record DateTime",
	"Flow rate (m^3/h)",
	"dp (mbar)",
}

// Row is the extraction output for one document. The four activity fields hold
// either "<MDA" or "N.NNNN ± N.NNNN"; the metadata fields are passed through verbatim.
type Row struct {
	AlphaActivity      string `json:"alpha_activity"`
	BetaActivity       string `json:"beta_activity"`
	Rn222Activity      string `json:"rn222_activity"`
	Rn222Concentration string `json:"rn222_concentration"`

	RecordDateTime       *string `json:"record_datetime"`
	FlowRate             *string `json:"flow_rate"`
	DifferentialPressure *string `json:"differential_pressure"`
}

// Cells returns the row in column order; absent metadata is nil.
func (r Row) Cells() []any {
	return []any{
		r.AlphaActivity,
		r.BetaActivity,
		r.Rn222Activity,
		r.Rn222Concentration,
		strOrNil(r.RecordDateTime),
		strOrNil(r.FlowRate),
		strOrNil(r.DifferentialPressure),
	}
}

// Strings returns the row in column order with absent metadata as "".
func (r Row) Strings() []string {
	return []string{
		r.AlphaActivity,
		r.BetaActivity,
		r.Rn222Activity,
		r.Rn222Concentration,
		strOrEmpty(r.RecordDateTime),
		strOrEmpty(r.FlowRate),
		strOrEmpty(r.DifferentialPressure),
	}
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func strOrNil(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
