package features

import (
	"fmt"
	"strings"
)

// Categorical codes follow scikit-learn's LabelEncoder, which numbers the
// distinct values of a column in sorted order. These are the values present
// in the IBM telco customer churn dataset.
var (
	ContractCodes = map[string]int{
		"Month-to-month": 0,
		"One year":       1,
		"Two year":       2,
	}
	PaymentMethodCodes = map[string]int{
		"Bank transfer (automatic)": 0,
		"Credit card (automatic)":   1,
		"Electronic check":          2,
		"Mailed check":              3,
	}
	OnlineSecurityCodes = map[string]int{
		"No":                  0,
		"No internet service": 1,
		"Yes":                 2,
	}
)

// Encode maps a raw categorical value to its code.
func Encode(column, value string) (int, error) {
	var codes map[string]int
	switch column {
	case "Contract":
		codes = ContractCodes
	case "PaymentMethod":
		codes = PaymentMethodCodes
	case "OnlineSecurity":
		codes = OnlineSecurityCodes
	default:
		return 0, fmt.Errorf("column %q is not categorical", column)
	}
	code, ok := codes[strings.TrimSpace(value)]
	if !ok {
		return 0, fmt.Errorf("unknown %s value %q", column, value)
	}
	return code, nil
}

// EncodeLabel maps the Churn column (Yes/No) to 1/0.
func EncodeLabel(value string) (int, error) {
	switch strings.TrimSpace(value) {
	case "Yes":
		return 1, nil
	case "No":
		return 0, nil
	default:
		return 0, fmt.Errorf("unknown Churn value %q", value)
	}
}
