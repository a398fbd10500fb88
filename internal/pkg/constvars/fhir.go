package constvars

type ResourceType string

const (
	ResourcePatient      = "Patient"
	ResourcePractitioner = "Practitioner"
	ResourceBundle       = "Bundle"
)

const (
	FhirSearchParamFamily = "family"

	FhirBundleTypeSearchset = "searchset"

	// Wire values for Patient.gender (FHIR administrative-gender value set).
	FhirGenderMale    = "male"
	FhirGenderFemale  = "female"
	FhirGenderOther   = "other"
	FhirGenderUnknown = "unknown"

	FhirBirthDateLayout = "2006-01-02"
)

const (
	MongoCollectionPatientRecords = "patient_records"
)
