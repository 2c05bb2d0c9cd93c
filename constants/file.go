package constants

import "strings"

// XMLSuffix is the case-sensitive suffix a file name must carry to be picked up as a measurement document.
const XMLSuffix = ".xml"

// IsMeasurementFile reports whether name looks like an N42 measurement document.
func IsMeasurementFile(name string) bool {
	return strings.HasSuffix(name, XMLSuffix)
}

// DefaultWorkbookName is used when no output path is given for a batch.
const DefaultWorkbookName = "n42_extract.xlsx"
