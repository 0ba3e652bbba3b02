package enums

// AdoptionStatus is the lifecycle state of an adoption request.
type AdoptionStatus string

const (
	AdoptionStatusPending   AdoptionStatus = "pending"
	AdoptionStatusContacted AdoptionStatus = "contacted"
	AdoptionStatusApproved  AdoptionStatus = "approved"
	AdoptionStatusRejected  AdoptionStatus = "rejected"
)

var validAdoptionStatuses = []AdoptionStatus{
	AdoptionStatusPending,
	AdoptionStatusContacted,
	AdoptionStatusApproved,
	AdoptionStatusRejected,
}

func (s AdoptionStatus) String() string { return string(s) }

func (s AdoptionStatus) IsValid() bool { return contains(validAdoptionStatuses, s) }

// IsTerminal reports whether no further transition is allowed.
func (s AdoptionStatus) IsTerminal() bool {
	return s == AdoptionStatusApproved || s == AdoptionStatusRejected
}

// IsOpen reports whether the request still awaits a decision.
func (s AdoptionStatus) IsOpen() bool {
	return s == AdoptionStatusPending || s == AdoptionStatusContacted
}

func ParseAdoptionStatus(value string) (AdoptionStatus, error) {
	return parse(validAdoptionStatuses, value, "adoption status")
}

// HousingType describes the applicant's home.
type HousingType string

const (
	HousingTypeHouse     HousingType = "house"
	HousingTypeApartment HousingType = "apartment"
	HousingTypeFarm      HousingType = "farm"
	HousingTypeOther     HousingType = "other"
)

var validHousingTypes = []HousingType{HousingTypeHouse, HousingTypeApartment, HousingTypeFarm, HousingTypeOther}

func (h HousingType) IsValid() bool { return contains(validHousingTypes, h) }

func ParseHousingType(value string) (HousingType, error) {
	return parse(validHousingTypes, value, "housing type")
}
