package inquiry

import "fmt"

// Field names one input of the inquiry form. Values match the JSON keys on the wire.
type Field string

const (
	FieldName          Field = "name"
	FieldContactNumber Field = "contactNumber"
	FieldLocation      Field = "location"
	FieldCategory      Field = "category"
	FieldRequirement   Field = "requirement"
)

// Fields lists the form inputs in the order they are rendered and validated.
var Fields = []Field{FieldName, FieldContactNumber, FieldLocation, FieldCategory, FieldRequirement}

// ParseField maps a wire name onto a Field.
func ParseField(name string) (Field, error) {
	for _, f := range Fields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Draft is the in-progress vendor inquiry. It is a plain value: copies are snapshots.
type Draft struct {
	Name          string `json:"name"`
	ContactNumber string `json:"contactNumber"`
	Location      string `json:"location"`
	Category      string `json:"category"`
	Requirement   string `json:"requirement"`
}

// Get returns the value of one field.
func (d Draft) Get(f Field) (string, error) {
	switch f {
	case FieldName:
		return d.Name, nil
	case FieldContactNumber:
		return d.ContactNumber, nil
	case FieldLocation:
		return d.Location, nil
	case FieldCategory:
		return d.Category, nil
	case FieldRequirement:
		return d.Requirement, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, string(f))
}

// With returns a copy of d with exactly one field replaced.
func (d Draft) With(f Field, value string) (Draft, error) {
	switch f {
	case FieldName:
		d.Name = value
	case FieldContactNumber:
		d.ContactNumber = value
	case FieldLocation:
		d.Location = value
	case FieldCategory:
		d.Category = value
	case FieldRequirement:
		d.Requirement = value
	default:
		return d, fmt.Errorf("%w: %q", ErrUnknownField, string(f))
	}
	return d, nil
}

// IsEmpty reports whether every field is the empty string.
func (d Draft) IsEmpty() bool {
	return d == Draft{}
}

// MissingFields returns the fields that are exactly empty. Whitespace counts as filled.
func (d Draft) MissingFields() []Field {
	var missing []Field
	for _, f := range Fields {
		if v, _ := d.Get(f); v == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// CheckRequired is the form-side check: every field must be non-empty.
func (d Draft) CheckRequired() error {
	if missing := d.MissingFields(); len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// Validate is the intake-side check. On top of CheckRequired it rejects unknown categories.
func (d Draft) Validate() error {
	if err := d.CheckRequired(); err != nil {
		return err
	}
	if !IsCategory(d.Category) {
		return &ValidationError{Invalid: []Field{FieldCategory}}
	}
	return nil
}

// ConfirmationMessage is shown after the server accepts an inquiry.
func ConfirmationMessage(name string) string {
	return fmt.Sprintf("Thank you, %s! We have received your inquiry.", name)
}
