package entity

// Bookkeeping fields excluded from the filterable field list.
var internalCustomerFields = map[string]struct{}{
	"id":            {},
	"user_id":       {},
	"csv_import_id": {},
	"campaign_id":   {},
	"create_time":   {},
	"update_time":   {},
}

// Customer is a schema-flexible record: canonical columns plus an open
// attribute map carrying whatever else the CSV supplied. Attribute
// values are float64 for numeric cells, string otherwise.
type Customer struct {
	ID          *uint64                `json:"id,omitempty"`
	UserID      *uint64                `json:"user_id,omitempty"`
	CSVImportID *string                `json:"csv_import_id,omitempty"`
	CampaignID  *uint64                `json:"campaign_id,omitempty"`
	Email       *string                `json:"email,omitempty"`
	Name        *string                `json:"name,omitempty"`
	Phone       *string                `json:"phone,omitempty"`
	Attrs       map[string]interface{} `json:"attrs,omitempty"`
	CreateTime  *uint64                `json:"create_time,omitempty"`
	UpdateTime  *uint64                `json:"update_time,omitempty"`
}

func (e *Customer) GetID() uint64 {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return 0
}

func (e *Customer) GetUserID() uint64 {
	if e != nil && e.UserID != nil {
		return *e.UserID
	}
	return 0
}

func (e *Customer) GetCSVImportID() string {
	if e != nil && e.CSVImportID != nil {
		return *e.CSVImportID
	}
	return ""
}

func (e *Customer) GetEmail() string {
	if e != nil && e.Email != nil {
		return *e.Email
	}
	return ""
}

func (e *Customer) GetName() string {
	if e != nil && e.Name != nil {
		return *e.Name
	}
	return ""
}

func (e *Customer) GetPhone() string {
	if e != nil && e.Phone != nil {
		return *e.Phone
	}
	return ""
}

// ToRecord merges canonical fields and attributes into the flat view
// the rule engine evaluates against.
func (e *Customer) ToRecord() map[string]interface{} {
	record := make(map[string]interface{}, len(e.Attrs)+3)

	for k, v := range e.Attrs {
		record[k] = v
	}

	if e.Email != nil {
		record["email"] = *e.Email
	}
	if e.Name != nil {
		record["name"] = *e.Name
	}
	if e.Phone != nil {
		record["phone"] = *e.Phone
	}

	return record
}

// FieldNames lists this record's filterable fields.
func (e *Customer) FieldNames() []string {
	record := e.ToRecord()

	fields := make([]string, 0, len(record))
	for k := range record {
		if _, ok := internalCustomerFields[k]; ok {
			continue
		}
		fields = append(fields, k)
	}

	return fields
}
