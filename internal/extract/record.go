package extract

import "strings"

// UnknownDocumentType is the classification used when no keyword matches
const UnknownDocumentType = "Unknown"

// Field names a Record slot that rules may populate
type Field string

const (
	FieldPattaNumber  Field = "pattaNumber"
	FieldBatchNumber  Field = "batchNumber"
	FieldSurveyNumber Field = "surveyNumber"
	FieldOwnerName    Field = "ownerName"
	FieldVillage      Field = "village"
	FieldTaluk        Field = "taluk"
	FieldDistrict     Field = "district"
	FieldDate         Field = "date"
)

var knownFields = map[Field]bool{
	FieldPattaNumber:  true,
	FieldBatchNumber:  true,
	FieldSurveyNumber: true,
	FieldOwnerName:    true,
	FieldVillage:      true,
	FieldTaluk:        true,
	FieldDistrict:     true,
	FieldDate:         true,
}

// Record is the fixed-schema result of field extraction. Unmatched fields stay
// empty; DocumentType defaults to "Unknown".
type Record struct {
	DocumentType string `json:"documentType"`
	PattaNumber  string `json:"pattaNumber"`
	BatchNumber  string `json:"batchNumber"`
	SurveyNumber string `json:"surveyNumber"`
	OwnerName    string `json:"ownerName"`
	Village      string `json:"village"`
	Taluk        string `json:"taluk"`
	District     string `json:"district"`
	Date         string `json:"date"`
	Summary      string `json:"summary"`
}

// NewRecord returns a record holding only the defaults
func NewRecord() Record {
	return Record{DocumentType: UnknownDocumentType}
}

func (r *Record) set(f Field, value string) {
	switch f {
	case FieldPattaNumber:
		r.PattaNumber = value
	case FieldBatchNumber:
		r.BatchNumber = value
	case FieldSurveyNumber:
		r.SurveyNumber = value
	case FieldOwnerName:
		r.OwnerName = value
	case FieldVillage:
		r.Village = value
	case FieldTaluk:
		r.Taluk = value
	case FieldDistrict:
		r.District = value
	case FieldDate:
		r.Date = value
	}
}

// summarize builds the pipe-delimited summary from the populated fields
func (r Record) summarize() string {
	parts := []string{"Document Type: " + r.DocumentType}
	if r.PattaNumber != "" {
		parts = append(parts, "Patta No: "+r.PattaNumber)
	}
	if r.SurveyNumber != "" {
		parts = append(parts, "Survey No: "+r.SurveyNumber)
	}
	if r.OwnerName != "" {
		parts = append(parts, "Owner: "+r.OwnerName)
	}
	return strings.Join(parts, " | ")
}
