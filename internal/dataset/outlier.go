package dataset

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
)

// FilterConfig holds the wage cut-offs. The defaults are the survey's
// top-code and the fixed bases used in the salary analysis.
type FilterConfig struct {
	Wage          string         `yaml:"-"`
	SentinelWage  float64        `yaml:"sentinel_wage"`
	UpperBase     float64        `yaml:"upper_base"`
	LowerBase     float64        `yaml:"lower_base"`
	IQRMultiplier float64        `yaml:"iqr_multiplier"`
	Method        QuantileMethod `yaml:"quantile_method"`
}

// DefaultFilterConfig returns the survey constants.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		Wage:          DefaultColumns().Wage,
		SentinelWage:  999998,
		UpperBase:     400000,
		LowerBase:     15600,
		IQRMultiplier: 1.5,
		Method:        QuantileLinear,
	}
}

// FilterReport records what each stage of FilterOutliers removed and the
// thresholds it derived.
type FilterReport struct {
	RowsIn             int
	SentinelRemoved    int
	NonPositiveRemoved int
	MissingRemoved     int
	IQRRemoved         int
	RowsOut            int

	Q1    float64
	Q3    float64
	IQR   float64
	Upper float64
	Lower float64
}

// Removed is the total number of rows dropped.
func (r FilterReport) Removed() int {
	return r.SentinelRemoved + r.NonPositiveRemoved + r.MissingRemoved + r.IQRRemoved
}

// FilterOutliers drops sentinel wages, non-positive wages and incomplete rows,
// then derives IQR bounds from the wages that remain and drops rows outside
// them. The quartiles must come from the partially filtered wages: taking
// them earlier would let the sentinels drag Q3 upwards.
func FilterOutliers(df dataframe.DataFrame, cfg FilterConfig) (dataframe.DataFrame, FilterReport, error) {
	var report FilterReport
	if df.Err != nil {
		return dataframe.DataFrame{}, report, fmt.Errorf("filter: %w", df.Err)
	}
	if cfg.Wage == "" {
		cfg.Wage = DefaultColumns().Wage
	}
	if _, err := column(df, cfg.Wage); err != nil {
		return dataframe.DataFrame{}, report, err
	}
	report.RowsIn = df.Nrow()

	cur := df
	var removed int
	var err error

	cur, removed, err = keepWhere(cur, cfg.Wage, func(w float64) bool { return math.IsNaN(w) || w < cfg.SentinelWage })
	if err != nil {
		return dataframe.DataFrame{}, report, err
	}
	report.SentinelRemoved = removed

	cur, removed, err = keepWhere(cur, cfg.Wage, func(w float64) bool { return math.IsNaN(w) || w > 0 })
	if err != nil {
		return dataframe.DataFrame{}, report, err
	}
	report.NonPositiveRemoved = removed

	cur, removed, err = dropIncomplete(cur)
	if err != nil {
		return dataframe.DataFrame{}, report, err
	}
	report.MissingRemoved = removed

	wages := cur.Col(cfg.Wage).Float()
	report.Q1 = Quantile(wages, 0.25, cfg.Method)
	report.Q3 = Quantile(wages, 0.75, cfg.Method)
	report.IQR = report.Q3 - report.Q1
	report.Upper = cfg.UpperBase + cfg.IQRMultiplier*report.IQR
	report.Lower = cfg.LowerBase - cfg.IQRMultiplier*report.IQR

	cur, removed, err = keepWhere(cur, cfg.Wage, func(w float64) bool { return w < report.Upper && w > report.Lower })
	if err != nil {
		return dataframe.DataFrame{}, report, err
	}
	report.IQRRemoved = removed
	report.RowsOut = cur.Nrow()

	return cur, report, nil
}

func keepWhere(df dataframe.DataFrame, name string, keep func(float64) bool) (dataframe.DataFrame, int, error) {
	values := df.Col(name).Float()
	idx := make([]int, 0, len(values))
	for i, v := range values {
		if keep(v) {
			idx = append(idx, i)
		}
	}
	return subset(df, idx)
}

func dropIncomplete(df dataframe.DataFrame) (dataframe.DataFrame, int, error) {
	complete := make([]bool, df.Nrow())
	for i := range complete {
		complete[i] = true
	}
	for _, name := range df.Names() {
		for i, na := range df.Col(name).IsNaN() {
			if na {
				complete[i] = false
			}
		}
	}
	idx := make([]int, 0, len(complete))
	for i, ok := range complete {
		if ok {
			idx = append(idx, i)
		}
	}
	return subset(df, idx)
}

func subset(df dataframe.DataFrame, idx []int) (dataframe.DataFrame, int, error) {
	removed := df.Nrow() - len(idx)
	if removed == 0 {
		return df, 0, nil
	}
	out := df.Subset(idx)
	if out.Err != nil {
		return dataframe.DataFrame{}, 0, fmt.Errorf("filter: %w", out.Err)
	}
	return out, removed, nil
}
