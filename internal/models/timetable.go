package models

// TimetableEntry is one teaching period of a class. DayOfWeek counts from Sunday = 0.
type TimetableEntry struct {
	ID           string  `db:"id" json:"id"`
	Class        string  `db:"class" json:"class"`
	Section      *string `db:"section" json:"section,omitempty"`
	DayOfWeek    int     `db:"day_of_week" json:"day_of_week"`
	PeriodNumber int     `db:"period_number" json:"period_number"`
	Subject      string  `db:"subject" json:"subject"`
	TeacherName  *string `db:"teacher_name" json:"teacher_name"`
	RoomNumber   *string `db:"room_number" json:"room_number,omitempty"`
	StartTime    string  `db:"start_time" json:"start_time"`
	EndTime      string  `db:"end_time" json:"end_time"`
}

// TimetableDay groups the periods that fall on one weekday.
type TimetableDay struct {
	Day     string           `json:"day"`
	Periods []TimetableEntry `json:"periods"`
}

var weekdays = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// GroupTimetable buckets entries by weekday, keeping the input order of days and periods.
func GroupTimetable(entries []TimetableEntry) []TimetableDay {
	days := []TimetableDay{}
	for _, e := range entries {
		if e.DayOfWeek < 0 || e.DayOfWeek >= len(weekdays) {
			continue
		}
		name := weekdays[e.DayOfWeek]
		if n := len(days); n == 0 || days[n-1].Day != name {
			days = append(days, TimetableDay{Day: name})
		}
		last := &days[len(days)-1]
		last.Periods = append(last.Periods, e)
	}
	return days
}
