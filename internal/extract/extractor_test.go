package extract

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/n42-extract/internal/entity"
	"github.com/joseph-ayodele/n42-extract/internal/n42"
)

const header = `<?xml version="1.0" encoding="UTF-8"?>
<n42:RadInstrumentData xmlns:n42="http://physics.nist.gov/N42/2011/N42" xmlns:mis-n42="http://www.microstepmis.com/N42/756/Extension">`

func nuclideXML(name string, fields ...string) string {
	var sb strings.Builder
	sb.WriteString("<n42:Nuclide><n42:NuclideName>" + name + "</n42:NuclideName>")
	for _, f := range fields {
		sb.WriteString(f)
	}
	sb.WriteString("</n42:Nuclide>")
	return sb.String()
}

func activity(v string) string {
	return "<n42:NuclideActivityValue>" + v + "</n42:NuclideActivityValue>"
}

func unc(v string) string {
	return "<n42:NuclideIDConfidenceUncertaintyValue>" + v + "</n42:NuclideIDConfidenceUncertaintyValue>"
}

func conc(v, e string) string {
	return "<n42:Extension><mis-n42:NuclideConcentration>" + v + "</mis-n42:NuclideConcentration>" +
		"<mis-n42:NuclideConcentrationError>" + e + "</mis-n42:NuclideConcentrationError></n42:Extension>"
}

const meta = `<n42:RadMeasurement><n42:Extension>
<mis-n42:MeasurementRecordDateTime>2024-03-05T11:00:00Z</mis-n42:MeasurementRecordDateTime>
<mis-n42:MeasurementFlow>1.52</mis-n42:MeasurementFlow>
<mis-n42:MeasurementDeltaPressure>12.3</mis-n42:MeasurementDeltaPressure>
</n42:Extension></n42:RadMeasurement>`

func document(parts ...string) []byte {
	return []byte(header + "<n42:AnalysisResults>" + strings.Join(parts, "") + "</n42:AnalysisResults></n42:RadInstrumentData>")
}

func TestExtractFile_Report(t *testing.T) {
	row, err := ExtractFile(filepath.Join("testdata", "report.xml"), 2.0)
	require.NoError(t, err)

	assert.Equal(t, "10.0000 ± 2.0000", row.AlphaActivity)
	assert.Equal(t, "<MDA", row.BetaActivity) // 0.35 < 0.4
	assert.Equal(t, "3.1416 ± 0.0200", row.Rn222Activity)
	assert.Equal(t, "25.5000 ± 1.2500", row.Rn222Concentration)
	require.NotNil(t, row.RecordDateTime)
	assert.Equal(t, "2024-03-05T11:00:00Z", *row.RecordDateTime)
	require.NotNil(t, row.FlowRate)
	assert.Equal(t, "1.52", *row.FlowRate)
	require.NotNil(t, row.DifferentialPressure)
	assert.Equal(t, "12.3", *row.DifferentialPressure)
}

func TestExtract_ZeroHandlingPerChannel(t *testing.T) {
	doc := document(
		nuclideXML("Alpha", activity("0"), unc("0")),
		nuclideXML("Beta", activity("0.0"), unc("0.0")),
		nuclideXML("Rn-222", activity("0"), unc("0"), conc("0", "0")),
	)
	row, err := ExtractContent("", doc, 2.0)
	require.NoError(t, err)

	assert.Equal(t, "<MDA", row.AlphaActivity)
	assert.Equal(t, "<MDA", row.BetaActivity)
	assert.Equal(t, "<MDA", row.Rn222Activity)
	assert.Equal(t, "0.0000 ± 0.0000", row.Rn222Concentration)
}

func TestExtract_MissingRecordsAndMetadata(t *testing.T) {
	row, err := ExtractContent("", document(nuclideXML("Alpha", activity("10.0"), unc("2.0"))), 2.0)
	require.NoError(t, err)

	assert.Equal(t, "10.0000 ± 2.0000", row.AlphaActivity)
	assert.Equal(t, "<MDA", row.BetaActivity)
	assert.Equal(t, "<MDA", row.Rn222Activity)
	assert.Equal(t, "<MDA", row.Rn222Concentration)
	assert.Nil(t, row.RecordDateTime)
	assert.Nil(t, row.FlowRate)
	assert.Nil(t, row.DifferentialPressure)
}

func TestExtract_AbsentFieldIsNotZero(t *testing.T) {
	m, err := readDoc(t, document(
		nuclideXML("Alpha", activity("0")),
		nuclideXML("Rn-222", activity("5"), unc("1"), "<n42:Extension><mis-n42:NuclideConcentration>0</mis-n42:NuclideConcentration></n42:Extension>"),
	))
	require.NoError(t, err)

	require.NotNil(t, m.Alpha.Value)
	assert.Equal(t, 0.0, *m.Alpha.Value)
	assert.Nil(t, m.Alpha.Uncertainty)
	assert.Nil(t, m.Rn222Concentration.Uncertainty)

	row := Classify(m, 2.0)
	assert.Equal(t, "<MDA", row.AlphaActivity)
	assert.Equal(t, "<MDA", row.Rn222Concentration)
	assert.Equal(t, "5.0000 ± 1.0000", row.Rn222Activity)
}

func TestExtract_FirstMatchWins(t *testing.T) {
	row, err := ExtractContent("", document(
		nuclideXML("Alpha", activity("10"), unc("1")),
		nuclideXML("Alpha", activity("99"), unc("1")),
	), 2.0)
	require.NoError(t, err)
	assert.Equal(t, "10.0000 ± 1.0000", row.AlphaActivity)
}

func TestExtract_AlphaIgnoresConcentration(t *testing.T) {
	m, err := readDoc(t, document(nuclideXML("Alpha", activity("10"), unc("1"), conc("7", "1"))))
	require.NoError(t, err)
	assert.Nil(t, m.Rn222Concentration.Value)
}

func TestExtract_NameMustMatchExactly(t *testing.T) {
	row, err := ExtractContent("", document(
		nuclideXML("alpha", activity("10"), unc("1")),
		nuclideXML(" Beta", activity("10"), unc("1")),
	), 2.0)
	require.NoError(t, err)
	assert.Equal(t, "<MDA", row.AlphaActivity)
	assert.Equal(t, "<MDA", row.BetaActivity)
}

func TestExtract_MetadataWithoutNuclides(t *testing.T) {
	row, err := ExtractContent("", document(meta), 2.0)
	require.NoError(t, err)
	require.NotNil(t, row.FlowRate)
	assert.Equal(t, "1.52", *row.FlowRate)
	assert.Equal(t, "<MDA", row.AlphaActivity)
}

func TestExtract_SigmaChangesOutcome(t *testing.T) {
	doc := document(nuclideXML("Beta", activity("5"), unc("2")))

	row, err := ExtractContent("", doc, 2.0)
	require.NoError(t, err)
	assert.Equal(t, "5.0000 ± 2.0000", row.BetaActivity)

	row, err = ExtractContent("", doc, 3.0)
	require.NoError(t, err)
	assert.Equal(t, "<MDA", row.BetaActivity)
}

func TestExtract_NumericParseError(t *testing.T) {
	tests := []struct {
		name  string
		doc   []byte
		field string
	}{
		{"non numeric activity", document(nuclideXML("Alpha", activity("n/a"), unc("1"))), "Alpha.NuclideActivityValue"},
		{"empty uncertainty", document(nuclideXML("Beta", activity("1"), unc(""))), "Beta.NuclideIDConfidenceUncertaintyValue"},
		{"nan concentration", document(nuclideXML("Rn-222", activity("1"), unc("1"), conc("NaN", "1"))), "Rn-222.NuclideConcentration"},
		{"infinite concentration error", document(nuclideXML("Rn-222", conc("1", "+Inf"))), "Rn-222.NuclideConcentrationError"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := ExtractContent("", tt.doc, 2.0)
			require.Error(t, err)
			assert.Equal(t, entity.Row{}, row)
			assert.True(t, errors.Is(err, ErrNumericParse))

			var npe *NumericParseError
			require.True(t, errors.As(err, &npe))
			assert.Equal(t, tt.field, npe.Field)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestExtract_TolerantNumericText(t *testing.T) {
	row, err := ExtractContent("", document(nuclideXML("Alpha", activity(" 1.2e1\n"), unc("\t2 "))), 2.0)
	require.NoError(t, err)
	assert.Equal(t, "12.0000 ± 2.0000", row.AlphaActivity)
}

func TestExtractFile_DocumentParseError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.xml")
	require.NoError(t, os.WriteFile(path, []byte("<n42:RadInstrumentData><unclosed>"), 0o644))

	_, err := ExtractFile(path, 2.0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDocumentParse))
	assert.False(t, errors.Is(err, ErrNumericParse))

	var dpe *DocumentParseError
	require.True(t, errors.As(err, &dpe))
	assert.Equal(t, path, dpe.Path)

	_, err = ExtractFile(filepath.Join(dir, "missing.xml"), 2.0)
	assert.True(t, errors.Is(err, ErrDocumentParse))
}

func TestExtract_BatchIndependence(t *testing.T) {
	good1 := document(nuclideXML("Alpha", activity("10"), unc("2")))
	bad := document(nuclideXML("Alpha", activity("ten"), unc("2")))
	good2 := document(nuclideXML("Beta", activity("8"), unc("1")))

	var rows []entity.Row
	var errs []error
	for _, doc := range [][]byte{good1, bad, good2} {
		row, err := ExtractContent("", doc, 2.0)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rows = append(rows, row)
	}
	require.Len(t, errs, 1)
	require.Len(t, rows, 2)
	assert.Equal(t, "10.0000 ± 2.0000", rows[0].AlphaActivity)
	assert.Equal(t, "8.0000 ± 1.0000", rows[1].BetaActivity)
}

func TestN42_ExtractContent(t *testing.T) {
	path := filepath.Join("testdata", "report.xml")
	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var ce ContentExtractor = N42{}
	row, err := ce.ExtractContent(path, content, 2.0)
	require.NoError(t, err)
	assert.Equal(t, "10.0000 ± 2.0000", row.AlphaActivity)

	_, err = ce.ExtractContent("/elsewhere/broken.xml", []byte("<n42:RadInstrumentData>"), 2.0)
	var dpe *DocumentParseError
	require.True(t, errors.As(err, &dpe))
	assert.Equal(t, "/elsewhere/broken.xml", dpe.Path)
}

func readDoc(t *testing.T, b []byte) (entity.Measurement, error) {
	t.Helper()
	doc, err := n42.ParseBytes(b)
	require.NoError(t, err)
	return Read(doc)
}
