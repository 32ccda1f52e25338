package receivable

import "time"

// CivilDate truncates t to midnight of its calendar date, expressed in UTC.
// Every day comparison in the ledger goes through this function so that
// overdue detection, cadence selection and the reminder guard agree on
// where a day starts.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole number of calendar days from -> to
func DaysBetween(from, to time.Time) int {
	return int(CivilDate(to).Sub(CivilDate(from)).Hours() / 24)
}
