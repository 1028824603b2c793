package transcript

import (
	"fmt"
	"time"
)

var koWeekdays = [...]string{"일요일", "월요일", "화요일", "수요일", "목요일", "금요일", "토요일"}

// FormatClock renders a timestamp as a 12-hour clock with a Korean AM/PM
// marker, e.g. "오전 9:05" or "오후 11:30".
func FormatClock(t time.Time) string {
	marker := "오전"
	if t.Hour() >= 12 {
		marker = "오후"
	}
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%s %d:%02d", marker, hour, t.Minute())
}

// FormatDate renders the long-form Korean date used for date dividers,
// e.g. "2024년 3월 1일 금요일".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d년 %d월 %d일 %s", t.Year(), int(t.Month()), t.Day(), koWeekdays[t.Weekday()])
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
