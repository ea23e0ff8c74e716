package dataset

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
)

// Project returns a new table holding only the named columns, in the order
// given. Row count and row order are unchanged and df is not modified.
func Project(df dataframe.DataFrame, columns ...string) (dataframe.DataFrame, error) {
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("project: %w", df.Err)
	}
	if len(columns) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("project: no columns requested")
	}
	seen := make(map[string]bool, len(columns))
	for _, name := range columns {
		if seen[name] {
			return dataframe.DataFrame{}, fmt.Errorf("project: column %q requested twice", name)
		}
		seen[name] = true
		if _, err := column(df, name); err != nil {
			return dataframe.DataFrame{}, err
		}
	}

	out := df.Select(columns)
	if out.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("project: %w", out.Err)
	}
	return out, nil
}
