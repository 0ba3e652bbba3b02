package enums

// CarnetKind names a section of a pet's medical carnet.
type CarnetKind string

const (
	CarnetKindVaccine    CarnetKind = "vaccine"
	CarnetKindDeworming  CarnetKind = "deworming"
	CarnetKindBath       CarnetKind = "bath"
	CarnetKindProcedure  CarnetKind = "procedure"
	CarnetKindMedication CarnetKind = "medication"
)

var validCarnetKinds = []CarnetKind{
	CarnetKindVaccine,
	CarnetKindDeworming,
	CarnetKindBath,
	CarnetKindProcedure,
	CarnetKindMedication,
}

var carnetKindByPath = map[string]CarnetKind{
	"vaccines":    CarnetKindVaccine,
	"dewormings":  CarnetKindDeworming,
	"baths":       CarnetKindBath,
	"procedures":  CarnetKindProcedure,
	"medications": CarnetKindMedication,
}

func (k CarnetKind) String() string { return string(k) }

func (k CarnetKind) IsValid() bool { return contains(validCarnetKinds, k) }

// HasDueDate reports whether entries of this kind can schedule a reminder.
func (k CarnetKind) HasDueDate() bool {
	return k == CarnetKindVaccine || k == CarnetKindDeworming || k == CarnetKindBath || k == CarnetKindMedication
}

func ParseCarnetKind(value string) (CarnetKind, error) {
	return parse(validCarnetKinds, value, "carnet kind")
}

// ParseCarnetKindPath accepts the plural URL segment (e.g. "vaccines").
func ParseCarnetKindPath(segment string) (CarnetKind, error) {
	if kind, ok := carnetKindByPath[segment]; ok {
		return kind, nil
	}
	return ParseCarnetKind(segment)
}

// DewormingKind separates internal (parasites) from external (fleas, ticks) treatments.
type DewormingKind string

const (
	DewormingKindInternal DewormingKind = "internal"
	DewormingKindExternal DewormingKind = "external"
)

func (d DewormingKind) IsValid() bool {
	return d == DewormingKindInternal || d == DewormingKindExternal
}
