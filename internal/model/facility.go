package model

// Facility is an E-PRTR production facility as stored in 2_ProductionFacility.
// String columns are coalesced to "" by the query layer; coordinates stay nil
// when the facility has no reported geometry.
type Facility struct {
	ID            string   `db:"facility_id" json:"facility_id"`
	Name          string   `db:"name" json:"name"`
	ParentCompany string   `db:"parent_company" json:"parent_company"`
	Street        string   `db:"street" json:"street,omitempty"`
	PostalCode    string   `db:"postal_code" json:"postal_code,omitempty"`
	City          string   `db:"city" json:"city"`
	CountryCode   string   `db:"country_code" json:"country_code"`
	ActivityCode  string   `db:"activity_code" json:"activity_code"`
	ActivityName  string   `db:"activity_name" json:"activity_name"`
	StartDate     string   `db:"start_date" json:"start_date,omitempty"`
	SiteID        string   `db:"site_id" json:"site_id,omitempty"`
	Lat           *float64 `db:"lat" json:"lat,omitempty"`
	Lon           *float64 `db:"lon" json:"lon,omitempty"`
}

// HasLocation reports whether both coordinates are present.
func (f Facility) HasLocation() bool {
	return f.Lat != nil && f.Lon != nil
}

// DisplayName returns the facility name, falling back to the parent company
// and finally the facility id.
func (f Facility) DisplayName() string {
	switch {
	case f.Name != "":
		return f.Name
	case f.ParentCompany != "":
		return f.ParentCompany
	default:
		return f.ID
	}
}
