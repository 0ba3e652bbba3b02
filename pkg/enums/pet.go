package enums

type PetType string

const (
	PetTypeDog PetType = "dog"
	PetTypeCat PetType = "cat"
)

var validPetTypes = []PetType{PetTypeDog, PetTypeCat}

func (p PetType) IsValid() bool { return contains(validPetTypes, p) }

func ParsePetType(value string) (PetType, error) { return parse(validPetTypes, value, "pet type") }

type PetSize string

const (
	PetSizeSmall  PetSize = "small"
	PetSizeMedium PetSize = "medium"
	PetSizeLarge  PetSize = "large"
)

var validPetSizes = []PetSize{PetSizeSmall, PetSizeMedium, PetSizeLarge}

func (p PetSize) IsValid() bool { return contains(validPetSizes, p) }

func ParsePetSize(value string) (PetSize, error) { return parse(validPetSizes, value, "pet size") }

type PetSex string

const (
	PetSexMale   PetSex = "male"
	PetSexFemale PetSex = "female"
)

var validPetSexes = []PetSex{PetSexMale, PetSexFemale}

func (p PetSex) IsValid() bool { return contains(validPetSexes, p) }

func ParsePetSex(value string) (PetSex, error) { return parse(validPetSexes, value, "pet sex") }
