package constants

// XML namespaces used by MicroStep-MIS N42 measurement reports.
const (
	NamespaceN42       = "http://physics.nist.gov/N42/2011/N42"
	NamespaceExtension = "http://www.microstepmis.com/N42/756/Extension"
)

// Nuclide names as they appear in n42:NuclideName.
const (
	NuclideAlpha = "Alpha"
	NuclideBeta  = "Beta"
	NuclideRn222 = "Rn-222"
)

// Element local names.
const (
	ElemNuclide                = "Nuclide"
	ElemNuclideName            = "NuclideName"
	ElemNuclideActivityValue   = "NuclideActivityValue"
	ElemNuclideUncertainty     = "NuclideIDConfidenceUncertaintyValue"
	ElemNuclideConcentration   = "NuclideConcentration"
	ElemNuclideConcentrationEr = "NuclideConcentrationError"
	ElemRecordDateTime         = "MeasurementRecordDateTime"
	ElemFlow                   = "MeasurementFlow"
	ElemDeltaPressure          = "MeasurementDeltaPressure"
)

// BelowMDA is rendered in place of a value that does not clear the detection threshold.
const BelowMDA = "<MDA"

// DefaultSigma is the threshold multiplier used when the caller does not supply one.
const DefaultSigma = 2.0
