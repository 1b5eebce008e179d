package biennium

import "time"

// NextBiennium は入職日から 2 年刻みの次の節目を返します。
// 経過年数を 2 で切り捨てた周期数の次の周期を採用し、月日は入職日を維持します。
// 2/29 入職で結果がうるう年でない場合は 2/28 に丸めます。
func NextBiennium(hireDate, asOf time.Time) time.Time {
	elapsed := asOf.Year() - hireDate.Year()
	periods := floorDiv(elapsed, 2)
	return addYearsClamped(hireDate, (periods+1)*2)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func addYearsClamped(d time.Time, years int) time.Time {
	year := d.Year() + years
	month, day := d.Month(), d.Day()
	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysBetween は暦日ベースの日数差 (to - from) を返します。
func DaysBetween(from, to time.Time) int {
	f := dateOf(from)
	t := dateOf(to)
	return int(t.Sub(f).Hours() / 24)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
