package fields

import (
	"regexp"
	"strconv"
	"time"

	"github.com/joseph-ayodele/idextract/internal/entity"
	"github.com/joseph-ayodele/idextract/internal/textnorm"
)

var (
	numericDate = regexp.MustCompile(`^(\d{1,2})[./\- ](\d{1,2})[./\- ](\d{2}|\d{4})$`)
	namedDate   = regexp.MustCompile(`^(\d{1,2})(?:er)?\s+(\p{L}+)\.?\s+(\d{2}|\d{4})$`)
)

var monthNames = map[string]time.Month{
	"janvier": time.January, "jan": time.January, "january": time.January, "janv": time.January,
	"fevrier": time.February, "fev": time.February, "fevr": time.February, "feb": time.February, "february": time.February,
	"mars": time.March, "mar": time.March, "march": time.March,
	"avril": time.April, "avr": time.April, "apr": time.April, "april": time.April,
	"mai": time.May, "may": time.May,
	"juin": time.June, "jun": time.June, "june": time.June,
	"juillet": time.July, "juil": time.July, "jul": time.July, "july": time.July,
	"aout": time.August, "aug": time.August, "august": time.August,
	"septembre": time.September, "sept": time.September, "sep": time.September, "september": time.September,
	"octobre": time.October, "oct": time.October, "october": time.October,
	"novembre": time.November, "nov": time.November, "november": time.November,
	"decembre": time.December, "dec": time.December, "december": time.December,
}

// twoDigitWindow is how many years past the current year a two-digit year may
// point to before it is read as last century.
const twoDigitWindow = 20

// ParseDate reads a day-first date: 15/04/2023, 15.04.23, 15-04-2023,
// 15 04 2023, 15 avril 2023, 1er mars 1990, 3 Dec. 2001. Impossible calendar
// dates are rejected.
func ParseDate(raw string) (entity.Date, bool) {
	return parseDateAt(raw, time.Now())
}

func parseDateAt(raw string, now time.Time) (entity.Date, bool) {
	s := textnorm.CollapseSpaces(raw)
	var (
		day, year int
		month     time.Month
	)
	if m := numericDate.FindStringSubmatch(s); m != nil {
		day, _ = strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		month = time.Month(mm)
		year = fullYear(m[3], now)
	} else if m := namedDate.FindStringSubmatch(textnorm.Fold(s)); m != nil {
		var ok bool
		if month, ok = monthNames[m[2]]; !ok {
			return entity.Date{}, false
		}
		day, _ = strconv.Atoi(m[1])
		year = fullYear(m[3], now)
	} else {
		return entity.Date{}, false
	}
	return entity.NewDate(year, month, day)
}

func fullYear(s string, now time.Time) int {
	y, _ := strconv.Atoi(s)
	if len(s) == 4 {
		return y
	}
	century := now.Year() / 100 * 100
	if century+y > now.Year()+twoDigitWindow {
		return century - 100 + y
	}
	return century + y
}
