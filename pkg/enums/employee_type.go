package enums

import "fmt"

// EmployeeType narrows an employee's function; only meaningful when role=employee.
type EmployeeType string

const (
	EmployeeTypeSupport   EmployeeType = "support"
	EmployeeTypeFulfiller EmployeeType = "fulfiller"
	EmployeeTypeManager   EmployeeType = "manager"
)

var validEmployeeTypes = []EmployeeType{
	EmployeeTypeSupport,
	EmployeeTypeFulfiller,
	EmployeeTypeManager,
}

func (e EmployeeType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EmployeeType.
func (e EmployeeType) IsValid() bool {
	for _, candidate := range validEmployeeTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEmployeeType converts raw input into an EmployeeType.
func ParseEmployeeType(value string) (EmployeeType, error) {
	for _, candidate := range validEmployeeTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid employee type %q", value)
}
