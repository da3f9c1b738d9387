package filter

// Field identifies a semantic complaint field independent of how a
// particular source labels it.
type Field string

// Semantic fields recognized at the ingestion boundary.
const (
	FieldID                Field = "complaint_id"
	FieldDateReceived      Field = "date_received"
	FieldProduct           Field = "product"
	FieldIssue             Field = "issue"
	FieldCompany           Field = "company"
	FieldState             Field = "state"
	FieldNarrative         Field = "narrative"
	FieldCompanyResponse   Field = "company_response"
	FieldTimelyResponse    Field = "timely_response"
	FieldDateSentToCompany Field = "date_sent_to_company"
)

// columnAliases maps every column label the sources emit to its semantic
// field. The bulk CSV uses display casing, the search API uses snake_case,
// and the API names the narrative "complaint_what_happened". Resolution
// happens once here, never inside filter logic.
var columnAliases = map[string]Field{
	"Complaint ID":                  FieldID,
	"complaint_id":                  FieldID,
	"Date received":                 FieldDateReceived,
	"date_received":                 FieldDateReceived,
	"Product":                       FieldProduct,
	"product":                       FieldProduct,
	"Issue":                         FieldIssue,
	"issue":                         FieldIssue,
	"Company":                       FieldCompany,
	"company":                       FieldCompany,
	"State":                         FieldState,
	"state":                         FieldState,
	"Consumer complaint narrative":  FieldNarrative,
	"consumer_complaint_narrative":  FieldNarrative,
	"complaint_what_happened":       FieldNarrative,
	"Company response to consumer":  FieldCompanyResponse,
	"company_response":              FieldCompanyResponse,
	"Timely response?":              FieldTimelyResponse,
	"timely_response":               FieldTimelyResponse,
	"timely":                        FieldTimelyResponse,
	"Date sent to company":          FieldDateSentToCompany,
	"date_sent_to_company":          FieldDateSentToCompany,
}

// ResolveColumn maps a source column label to its semantic field.
func ResolveColumn(column string) (Field, bool) {
	f, ok := columnAliases[column]
	return f, ok
}
