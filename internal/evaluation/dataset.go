// Package evaluation scores a churn model against a labelled copy of the
// telco customer dataset.
package evaluation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/himanshu-dandle/telco-customer-churn/internal/features"
	"github.com/himanshu-dandle/telco-customer-churn/internal/models"
)

// LabelColumn holds the Yes/No churn outcome.
const LabelColumn = "Churn"

// Sample is one labelled row.
type Sample struct {
	Request models.ChurnRequest
	Label   int
}

// Dataset is the parsed evaluation set.
type Dataset struct {
	Samples []Sample
	// Imputed counts rows whose TotalCharges was blank or non-numeric and was
	// replaced by the column median.
	Imputed int
	Median  float64
}

// Positives counts churned rows.
func (d Dataset) Positives() int {
	n := 0
	for _, s := range d.Samples {
		n += s.Label
	}
	return n
}

// ReadCSV parses the raw telco CSV. Extra columns are ignored; categorical
// columns hold their text values and are encoded with features.Encode.
func ReadCSV(r io.Reader) (Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Dataset{}, errors.New("empty CSV")
		}
		return Dataset{}, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	required := append(append([]string(nil), features.Names...), LabelColumn)
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return Dataset{}, fmt.Errorf("missing column %q", name)
		}
	}

	var (
		ds      Dataset
		missing []int // indexes of samples without TotalCharges
		charges []float64
	)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Dataset{}, fmt.Errorf("line %d: %w", line, err)
		}
		field := func(name string) string { return strings.TrimSpace(rec[cols[name]]) }

		var s Sample
		if tc, err := strconv.ParseFloat(field("TotalCharges"), 64); err == nil {
			s.Request.TotalCharges = tc
			charges = append(charges, tc)
		} else {
			missing = append(missing, len(ds.Samples))
		}

		if s.Request.MonthlyCharges, err = strconv.ParseFloat(field("MonthlyCharges"), 64); err != nil {
			return Dataset{}, fmt.Errorf("line %d: MonthlyCharges: %w", line, err)
		}
		if s.Request.Tenure, err = strconv.Atoi(field("tenure")); err != nil {
			return Dataset{}, fmt.Errorf("line %d: tenure: %w", line, err)
		}
		if s.Request.Contract, err = features.Encode("Contract", field("Contract")); err != nil {
			return Dataset{}, fmt.Errorf("line %d: %w", line, err)
		}
		if s.Request.PaymentMethod, err = features.Encode("PaymentMethod", field("PaymentMethod")); err != nil {
			return Dataset{}, fmt.Errorf("line %d: %w", line, err)
		}
		if s.Request.OnlineSecurity, err = features.Encode("OnlineSecurity", field("OnlineSecurity")); err != nil {
			return Dataset{}, fmt.Errorf("line %d: %w", line, err)
		}
		if s.Label, err = features.EncodeLabel(field(LabelColumn)); err != nil {
			return Dataset{}, fmt.Errorf("line %d: %w", line, err)
		}
		ds.Samples = append(ds.Samples, s)
	}

	if len(ds.Samples) == 0 {
		return Dataset{}, errors.New("CSV has no data rows")
	}
	if len(missing) > 0 {
		if len(charges) == 0 {
			return Dataset{}, errors.New("TotalCharges has no numeric values")
		}
		ds.Median = Median(charges)
		for _, i := range missing {
			ds.Samples[i].Request.TotalCharges = ds.Median
		}
		ds.Imputed = len(missing)
	}
	return ds, nil
}

// Median of xs, averaging the two middle values for even lengths. xs is not
// modified.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
