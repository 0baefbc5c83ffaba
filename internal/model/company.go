package model

// Company is a transport company.  Code, when set, is the abbreviation
// used in reference codes.
type Company struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Code string `db:"code" json:"code,omitempty"`
}

// Agency is a sales point of a company.
type Agency struct {
	ID        string `db:"id" json:"id"`
	CompanyID string `db:"company_id" json:"company_id"`
	Name      string `db:"name" json:"name"`
	Phone     string `db:"phone" json:"phone"`
}
