// Package mrz locates and decodes ICAO 9303 machine readable zones in OCR text.
package mrz

import (
	"regexp"
	"strings"
	"time"

	"github.com/joseph-ayodele/idextract/constants"
	"github.com/joseph-ayodele/idextract/internal/entity"
)

// Format is the MRZ layout.
type Format string

const (
	TD1 Format = "TD1" // 3 lines of 30, ID cards
	TD2 Format = "TD2" // 2 lines of 36
	TD3 Format = "TD3" // 2 lines of 44, passports
)

var lineWidth = map[Format]int{TD1: 30, TD2: 36, TD3: 44}

// slack is how many trailing filler characters OCR may drop from a line.
const slack = 3

var candidateLine = regexp.MustCompile(`^[A-Z0-9<]{26,46}$`)

// Zone is a decoded MRZ. Values are raw MRZ values with fillers removed.
type Zone struct {
	Format         Format
	DocumentCode   string
	IssuingState   string
	DocumentNumber string
	Nationality    string
	BirthDate      *entity.Date
	Sex            string
	ExpiryDate     *entity.Date
	LastName       string
	FirstName      string

	// NumberCheck reports whether the document number check digit verified.
	NumberCheck bool
	// DatesCheck reports whether both date check digits verified.
	DatesCheck bool
}

// Find returns the first MRZ found in text.
func Find(text string) (*Zone, bool) {
	return FindAt(text, time.Now())
}

// FindAt is Find with an explicit reference time for two-digit birth years.
func FindAt(text string, now time.Time) (*Zone, bool) {
	var run []string
	flush := func() (*Zone, bool) {
		defer func() { run = run[:0] }()
		return decode(run, now)
	}
	for _, raw := range strings.Split(text, "\n") {
		line := strings.ToUpper(strings.Join(strings.Fields(raw), ""))
		if candidateLine.MatchString(line) && strings.Contains(line, "<") {
			run = append(run, line)
			continue
		}
		if z, ok := flush(); ok {
			return z, true
		}
	}
	return flush()
}

func decode(lines []string, now time.Time) (*Zone, bool) {
	switch {
	case len(lines) >= 3 && fits(lines[0], TD1) && fits(lines[1], TD1) && fits(lines[2], TD1):
		return decodeTD1(pad(lines[0], 30), pad(lines[1], 30), pad(lines[2], 30), now), true
	case len(lines) >= 2 && fits(lines[0], TD3) && fits(lines[1], TD3):
		return decodeTD23(TD3, pad(lines[0], 44), pad(lines[1], 44), now), true
	case len(lines) >= 2 && fits(lines[0], TD2) && fits(lines[1], TD2):
		return decodeTD23(TD2, pad(lines[0], 36), pad(lines[1], 36), now), true
	}
	return nil, false
}

func fits(line string, f Format) bool {
	w := lineWidth[f]
	return len(line) <= w && len(line) >= w-slack
}

func pad(line string, width int) string {
	if len(line) >= width {
		return line[:width]
	}
	return line + strings.Repeat("<", width-len(line))
}

func decodeTD1(l1, l2, l3 string, now time.Time) *Zone {
	z := &Zone{
		Format:         TD1,
		DocumentCode:   clean(l1[0:2]),
		IssuingState:   clean(l1[2:5]),
		DocumentNumber: clean(l1[5:14]),
		Nationality:    clean(l2[15:18]),
		Sex:            sex(l2[7]),
		NumberCheck:    CheckDigit(l1[5:14]) == l1[14],
	}
	z.BirthDate = birthDate(l2[0:6], now)
	z.ExpiryDate = expiryDate(l2[8:14])
	z.DatesCheck = CheckDigit(l2[0:6]) == l2[6] && CheckDigit(l2[8:14]) == l2[14]
	z.LastName, z.FirstName = names(l3)
	return z
}

func decodeTD23(f Format, l1, l2 string, now time.Time) *Zone {
	z := &Zone{
		Format:         f,
		DocumentCode:   clean(l1[0:2]),
		IssuingState:   clean(l1[2:5]),
		DocumentNumber: clean(l2[0:9]),
		Nationality:    clean(l2[10:13]),
		Sex:            sex(l2[20]),
		NumberCheck:    CheckDigit(l2[0:9]) == l2[9],
	}
	z.BirthDate = birthDate(l2[13:19], now)
	z.ExpiryDate = expiryDate(l2[21:27])
	z.DatesCheck = CheckDigit(l2[13:19]) == l2[19] && CheckDigit(l2[21:27]) == l2[27]
	z.LastName, z.FirstName = names(l1[5:])
	return z
}

// CheckDigit computes the ICAO 9303 7-3-1 check digit of s as an ASCII digit.
func CheckDigit(s string) byte {
	weights := [3]int{7, 3, 1}
	sum := 0
	for i := 0; i < len(s); i++ {
		sum += charValue(s[i]) * weights[i%3]
	}
	return byte('0' + sum%10)
}

func charValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	default:
		return 0
	}
}

func clean(s string) string {
	return strings.TrimRight(strings.TrimLeft(s, "<"), "<")
}

func sex(c byte) string {
	switch c {
	case 'M':
		return constants.GenderMale
	case 'F':
		return constants.GenderFemale
	}
	return ""
}

func names(s string) (last, first string) {
	parts := strings.SplitN(strings.TrimRight(s, "<"), "<<", 2)
	last = strings.Join(strings.FieldsFunc(parts[0], isFiller), " ")
	if len(parts) == 2 {
		first = strings.Join(strings.FieldsFunc(parts[1], isFiller), " ")
	}
	return last, first
}

func isFiller(r rune) bool { return r == '<' }

func yymmdd(s string) (yy, mm, dd int, ok bool) {
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	n := [6]int{}
	for i := 0; i < 6; i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, 0, 0, false
		}
		n[i] = int(s[i] - '0')
	}
	return n[0]*10 + n[1], n[2]*10 + n[3], n[4]*10 + n[5], true
}

// birthDate resolves the century so the date is not in the future.
func birthDate(s string, now time.Time) *entity.Date {
	yy, mm, dd, ok := yymmdd(s)
	if !ok {
		return nil
	}
	year := 2000 + yy
	if year > now.Year() {
		year -= 100
	}
	d, ok := entity.NewDate(year, time.Month(mm), dd)
	if !ok {
		return nil
	}
	return &d
}

func expiryDate(s string) *entity.Date {
	yy, mm, dd, ok := yymmdd(s)
	if !ok {
		return nil
	}
	d, ok := entity.NewDate(2000+yy, time.Month(mm), dd)
	if !ok {
		return nil
	}
	return &d
}

var icaoCountries = map[string]constants.Country{
	"FRA": constants.CountryFR,
	"BEL": constants.CountryBE,
	"CHE": constants.CountryCH,
	"LUX": constants.CountryLU,
	"MAR": constants.CountryMA,
	"DZA": constants.CountryDZ,
	"TUN": constants.CountryTN,
}

// Country maps the issuing state to a supported jurisdiction.
func (z *Zone) Country() constants.Country {
	return CountryOf(z.IssuingState)
}

// CountryOf maps an ICAO three-letter code to a supported jurisdiction.
func CountryOf(code string) constants.Country {
	if c, ok := icaoCountries[code]; ok {
		return c
	}
	return constants.CountryUnknown
}

// DocumentType derives the document kind from the document code.
func (z *Zone) DocumentType() constants.DocumentType {
	if z.DocumentCode == "" {
		return constants.DocUnknown
	}
	switch z.DocumentCode {
	case "IR", "IT", "TS", "RP", "AR", "RT":
		return constants.DocResidence
	}
	switch z.DocumentCode[0] {
	case 'P':
		return constants.DocPassport
	case 'V':
		return constants.DocVisa
	case 'I', 'A', 'C':
		return constants.DocCNI
	}
	return constants.DocUnknown
}
