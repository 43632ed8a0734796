// Package projector turns a decoded record into the ordered values of a table row.
package projector

import (
	"github.com/CoKeFish/ExtractDataRolita/internal/constants"
	"github.com/CoKeFish/ExtractDataRolita/internal/extractor"
	"github.com/CoKeFish/ExtractDataRolita/internal/schema"
)

// Row holds one value per schema column. A nil value is an attribute the record did not carry.
type Row []any

// Project extracts the value of every column of columns from rec. It never fails:
//   - timestamps are converted to the output layout, missing or empty ones give "".
//     Values that do not parse are kept as they are;
//   - latitude and longitude come from the nested location object, "" when absent;
//   - absent sentinel numeric fields are set to constants.SentinelValue;
//   - every other column is a direct lookup, nil when absent.
func Project(rec extractor.Record, columns []string) Row {
	location, _ := rec[schema.LocationKey].(map[string]any)

	row := make(Row, 0, len(columns))
	for _, col := range columns {
		switch {
		case schema.IsTimestamp(col):
			row = append(row, timestamp(rec[col]))
		case schema.IsLocation(col):
			v, ok := location[col]
			if !ok {
				v = ""
			}
			row = append(row, v)
		default:
			v := rec[col]
			if v == nil && schema.IsSentinelNumeric(col) {
				v = constants.SentinelValue
			}
			row = append(row, v)
		}
	}
	return row
}

func timestamp(v any) any {
	if v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return v
	}
	formatted, err := schema.ReformatTimestamp(s)
	if err != nil {
		return s
	}
	return formatted
}
