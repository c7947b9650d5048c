// Package sheet reads identifier spreadsheets and writes them back with a
// resolved date column.
//
// CSV files go through encoding/csv and XLSX workbooks through excelize. The
// first row is always the header and the first column always holds the
// identifiers; every cell is handled as text so leading zeros and long digit
// runs survive the round trip.
package sheet
