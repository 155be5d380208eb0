package models

// ExhibitorRecord is one exhibitor's extracted field set, the unit of output.
// Fields not found on the detail page are empty strings.
type ExhibitorRecord struct {
	URL           string `json:"url"`
	Name          string `json:"name"`
	Country       string `json:"country"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Website       string `json:"website"`
	Address       string `json:"address"`
	HallStand     string `json:"hall_stand"`
}

// Column is one column of the exported table.
type Column struct {
	Key   string
	Label string
	value func(r *ExhibitorRecord) string
}

// Columns is the fixed export schema, in output order.
var Columns = []Column{
	{Key: "name", Label: "Exhibitor Name", value: func(r *ExhibitorRecord) string { return r.Name }},
	{Key: "country", Label: "Country", value: func(r *ExhibitorRecord) string { return r.Country }},
	{Key: "contact_person", Label: "Contact Person", value: func(r *ExhibitorRecord) string { return r.ContactPerson }},
	{Key: "email", Label: "Email", value: func(r *ExhibitorRecord) string { return r.Email }},
	{Key: "phone", Label: "Phone", value: func(r *ExhibitorRecord) string { return r.Phone }},
	{Key: "website", Label: "Website", value: func(r *ExhibitorRecord) string { return r.Website }},
	{Key: "address", Label: "Address", value: func(r *ExhibitorRecord) string { return r.Address }},
	{Key: "hall_stand", Label: "Hall/Stand", value: func(r *ExhibitorRecord) string { return r.HallStand }},
	{Key: "url", Label: "Profile URL", value: func(r *ExhibitorRecord) string { return r.URL }},
}

// Header returns the display labels of Columns.
func Header() []string {
	labels := make([]string, len(Columns))
	for i, c := range Columns {
		labels[i] = c.Label
	}
	return labels
}

// Row returns the record's values in Columns order.
func (r *ExhibitorRecord) Row() []string {
	row := make([]string, len(Columns))
	for i, c := range Columns {
		row[i] = c.value(r)
	}
	return row
}

// Summary counts how many records carry the contact fields people look for.
type Summary struct {
	Total       int `json:"total"`
	WithEmail   int `json:"with_email"`
	WithPhone   int `json:"with_phone"`
	WithWebsite int `json:"with_website"`
	Failed      int `json:"failed"`
}

// Summarize builds a Summary for records; failed is the number of addresses
// that produced no record.
func Summarize(records []ExhibitorRecord, failed int) Summary {
	s := Summary{Total: len(records), Failed: failed}
	for i := range records {
		if records[i].Email != "" {
			s.WithEmail++
		}
		if records[i].Phone != "" {
			s.WithPhone++
		}
		if records[i].Website != "" {
			s.WithWebsite++
		}
	}
	return s
}
