// Package extract reads Alpha, Beta and Rn-222 readings plus session metadata from an
// N42 document and classifies every channel against the detection threshold.
package extract

import (
	"errors"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/n42-extract/constants"
	"github.com/joseph-ayodele/n42-extract/internal/core/mda"
	"github.com/joseph-ayodele/n42-extract/internal/entity"
	"github.com/joseph-ayodele/n42-extract/internal/n42"
)

var (
	nuclide       = n42.N(constants.NamespaceN42, constants.ElemNuclide)
	nuclideName   = n42.N(constants.NamespaceN42, constants.ElemNuclideName)
	activityValue = n42.N(constants.NamespaceN42, constants.ElemNuclideActivityValue)
	uncertainty   = n42.N(constants.NamespaceN42, constants.ElemNuclideUncertainty)
	concentration = n42.N(constants.NamespaceExtension, constants.ElemNuclideConcentration)
	concError     = n42.N(constants.NamespaceExtension, constants.ElemNuclideConcentrationEr)
	recordTime    = n42.N(constants.NamespaceExtension, constants.ElemRecordDateTime)
	flow          = n42.N(constants.NamespaceExtension, constants.ElemFlow)
	deltaPressure = n42.N(constants.NamespaceExtension, constants.ElemDeltaPressure)
)

// ExtractFile parses the document at path and extracts its row.
func ExtractFile(path string, sigma float64) (entity.Row, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return entity.Row{}, &DocumentParseError{Path: path, Err: err}
	}
	return ExtractContent(path, content, sigma)
}

// ExtractContent parses content that was read from path and extracts its row.
func ExtractContent(path string, content []byte, sigma float64) (entity.Row, error) {
	doc, err := n42.ParseBytes(content)
	if err != nil {
		return entity.Row{}, &DocumentParseError{Path: path, Err: err}
	}
	return Extract(doc, sigma)
}

// Extract reads and classifies a parsed document. Any malformed numeric field fails
// the whole document; no partial row is returned.
func Extract(doc *n42.Node, sigma float64) (entity.Row, error) {
	m, err := Read(doc)
	if err != nil {
		return entity.Row{}, err
	}
	return Classify(m, sigma), nil
}

// Read pulls the typed fields out of doc without classifying them. For each nuclide
// the first matching record in document order is used.
func Read(doc *n42.Node) (entity.Measurement, error) {
	var (
		m   entity.Measurement
		err error
	)
	if doc == nil {
		return m, &DocumentParseError{Err: n42.ErrEmptyDocument}
	}

	if rec := findNuclide(doc, constants.NuclideAlpha); rec != nil {
		if m.Alpha, err = readActivity(rec, constants.NuclideAlpha); err != nil {
			return entity.Measurement{}, err
		}
	}
	if rec := findNuclide(doc, constants.NuclideBeta); rec != nil {
		if m.Beta, err = readActivity(rec, constants.NuclideBeta); err != nil {
			return entity.Measurement{}, err
		}
	}
	if rec := findNuclide(doc, constants.NuclideRn222); rec != nil {
		if m.Rn222Activity, err = readActivity(rec, constants.NuclideRn222); err != nil {
			return entity.Measurement{}, err
		}
		if m.Rn222Concentration.Value, err = readFloat(rec, concentration, constants.NuclideRn222); err != nil {
			return entity.Measurement{}, err
		}
		if m.Rn222Concentration.Uncertainty, err = readFloat(rec, concError, constants.NuclideRn222); err != nil {
			return entity.Measurement{}, err
		}
	}

	m.RecordDateTime = readText(doc, recordTime)
	m.FlowRate = readText(doc, flow)
	m.DifferentialPressure = readText(doc, deltaPressure)
	return m, nil
}

// Classify renders every channel of m. Rn-222 concentration is the only channel that
// reports an explicit 0 ± 0 instead of suppressing it.
func Classify(m entity.Measurement, sigma float64) entity.Row {
	return entity.Row{
		AlphaActivity:        mda.Classify(m.Alpha.Value, m.Alpha.Uncertainty, sigma, mda.SuppressZero).String(),
		BetaActivity:         mda.Classify(m.Beta.Value, m.Beta.Uncertainty, sigma, mda.SuppressZero).String(),
		Rn222Activity:        mda.Classify(m.Rn222Activity.Value, m.Rn222Activity.Uncertainty, sigma, mda.SuppressZero).String(),
		Rn222Concentration:   mda.Classify(m.Rn222Concentration.Value, m.Rn222Concentration.Uncertainty, sigma, mda.RenderZero).String(),
		RecordDateTime:       m.RecordDateTime,
		FlowRate:             m.FlowRate,
		DifferentialPressure: m.DifferentialPressure,
	}
}

func findNuclide(doc *n42.Node, name string) *n42.Node {
	return doc.FindFirst(n42.WithChildText(nuclide, nuclideName, name))
}

func readActivity(rec *n42.Node, nuclideLabel string) (entity.Reading, error) {
	var (
		r   entity.Reading
		err error
	)
	if r.Value, err = readFloat(rec, activityValue, nuclideLabel); err != nil {
		return entity.Reading{}, err
	}
	if r.Uncertainty, err = readFloat(rec, uncertainty, nuclideLabel); err != nil {
		return entity.Reading{}, err
	}
	return r, nil
}

// readFloat returns nil when the element is absent under rec.
func readFloat(rec *n42.Node, name n42.QName, nuclideLabel string) (*float64, error) {
	el := rec.Find(name)
	if el == nil {
		return nil, nil
	}
	field := nuclideLabel + "." + name.Local
	text := strings.TrimSpace(el.Text)
	if text == "" {
		return nil, &NumericParseError{Field: field, Text: el.Text, Err: errors.New("empty value")}
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, &NumericParseError{Field: field, Text: el.Text, Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, &NumericParseError{Field: field, Text: el.Text, Err: errors.New("not a finite number")}
	}
	return &v, nil
}

// readText returns the verbatim text of the first descendant named name, nil when absent.
func readText(doc *n42.Node, name n42.QName) *string {
	el := doc.Find(name)
	if el == nil {
		return nil
	}
	s := el.Text
	return &s
}
