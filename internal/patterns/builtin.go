package patterns

import (
	"github.com/joseph-ayodele/idextract/constants"
)

// Building blocks for label-anchored rules. RE2 has no Unicode-aware \b, so a
// label must be preceded by start of line or a non-letter.
const (
	labelStart = `(?im)(?:^|[^\p{L}\p{N}])`
	optColon   = `[ \t]*[:.]?[ \t]*`
	reqColon   = `[ \t]*:[ \t]*`
	nameValue  = `(\p{L}+(?:[ '’\-]\p{L}+)*)`
	lineValue  = `([^\n\t]+?)(?:[ ]{2,}|\t|$)`
	dateValue  = `(\d{1,2}[./\- ]\d{1,2}[./\- ]\d{2,4}|\d{1,2}(?:er)?[ ]+\p{L}+\.?[ ]+\d{2,4})`
)

func labelled(labels, sep, value string) string {
	return labelStart + `(?:` + labels + `)` + sep + value
}

// boundedNumber wraps a number shape so it cannot start or end inside a longer
// alphanumeric run.
func boundedNumber(shape string) string {
	return `(?:^|[^A-Za-z0-9])(` + shape + `)(?:[^A-Za-z0-9]|$)`
}

const (
	lastNameLabels    = `nom(?:[ \t]+de[ \t]+famille)?|nom[ \t]+patronymique|surname|last[ \t]*name|family[ \t]*name`
	firstNameLabels   = `pr[ée]noms?|given[ \t]*names?|first[ \t]*names?|forenames?`
	birthDateLabels   = `n[ée]\(?e?\)?[ \t]+le|date[ \t]+de[ \t]+naissance|date[ \t]+of[ \t]+birth|birth[ \t]*date|d\.?o\.?b\.?`
	birthPlaceLabels  = `lieu[ \t]+de[ \t]+naissance|place[ \t]+of[ \t]+birth|n[ée]\(?e?\)?[ \t]+[àa]`
	genderLabels      = `sexe|sex|genre|gender|الجنس`
	nationalityLabels = `nationalit[ée]|nationality|الجنسية`
	addressLabels     = `adresse|address|domicile|demeurant`
	professionLabels  = `profession|occupation|m[ée]tier`
	authorityLabels   = `d[ée]livr[ée]e?[ \t]+par|autorit[ée](?:[ \t]+de[ \t]+d[ée]livrance)?|issuing[ \t]+authority|authority|issued[ \t]+by`
	issueDateLabels   = `d[ée]livr[ée]e?[ \t]+le|date[ \t]+de[ \t]+d[ée]livrance|date[ \t]+of[ \t]+issue|issue[ \t]+date|[ée]mise?[ \t]+le|fait[ \t]+le`
	expiryDateLabels  = `valable[ \t]+jusqu['’]?[ \t]*au|expire[ \t]+le|date[ \t]+d['’][ \t]*expiration|date[ \t]+of[ \t]+expiry|expiry[ \t]+date|expiration|valid[ \t]+until|date[ \t]+de[ \t]+fin[ \t]+de[ \t]+validit[ée]`
	fatherLabels      = `p[èe]re|father|fils[ \t]+de|fille[ \t]+de`
	motherLabels      = `m[èe]re|mother`
)

// genericNumberPattern finds an alphanumeric number next to a number keyword.
// The value must contain a digit and may be printed in space-separated groups.
const genericNumberPattern = labelStart + `(?:n[°ºo]|num[ée]ro|number|no\.?)[ \t]*[:.]?[ \t]*([A-Z0-9]*\d[A-Z0-9]*(?: \d[A-Z0-9]*)*)`

func genericRules() map[Field]*Rule {
	return map[Field]*Rule{
		FieldLastName: mustRule(FieldLastName, "",
			labelled(lastNameLabels, reqColon, nameValue),
			labelled(lastNameLabels, optColon, nameValue),
		),
		FieldFirstName: mustRule(FieldFirstName, "",
			labelled(firstNameLabels, reqColon, nameValue),
			labelled(firstNameLabels, optColon, nameValue),
		),
		FieldBirthDate: mustRule(FieldBirthDate, "",
			labelled(birthDateLabels, optColon, dateValue),
		),
		FieldBirthPlace: mustRule(FieldBirthPlace, "",
			labelled(birthPlaceLabels, optColon, nameValue),
			`(?i)\d{4}[ \t]+[àa][ \t]+`+nameValue,
		),
		FieldGender: mustRule(FieldGender, "",
			labelled(genderLabels, `(?:[ \t]*/[ \t]*(?:sex|gender))?`+optColon, `(\p{L}+)`),
		),
		FieldNationality: mustRule(FieldNationality, "",
			labelled(nationalityLabels, `(?:[ \t]*/[ \t]*nationality)?`+optColon, nameValue),
		),
		FieldAddress: mustRule(FieldAddress, "",
			labelled(addressLabels, optColon, lineValue),
		),
		FieldProfession: mustRule(FieldProfession, "",
			labelled(professionLabels, optColon, nameValue),
		),
		FieldIssuingAuthority: mustRule(FieldIssuingAuthority, "",
			labelled(authorityLabels, optColon, lineValue),
		),
		FieldIssueDate: mustRule(FieldIssueDate, "",
			labelled(issueDateLabels, optColon, dateValue),
		),
		FieldExpiryDate: mustRule(FieldExpiryDate, "",
			labelled(expiryDateLabels, optColon, dateValue),
		),
		FieldFatherName: mustRule(FieldFatherName, "",
			labelled(fatherLabels, optColon, nameValue),
		),
		FieldMotherName: mustRule(FieldMotherName, "",
			labelled(motherLabels, optColon, nameValue),
		),
		FieldDocumentNumber: mustRule(FieldDocumentNumber, `^[A-Z0-9]{6,20}$`,
			genericNumberPattern,
		),
	}
}

// numberFormat is the shape of one document number and the anchored check of
// its whitespace-free form.
type numberFormat struct {
	shape     string
	validator string
}

var builtinNumberFormats = map[constants.Country]map[constants.DocumentType]numberFormat{
	constants.CountryFR: {
		constants.DocCNI:       {`\d{4}[ ]?\d{4}[ ]?\d{4}`, `^\d{12}$`},
		constants.DocPassport:  {`\d{2}[A-Z]{2}\d{5}`, `^\d{2}[A-Z]{2}\d{5}$`},
		constants.DocResidence: {`\d{10}`, `^\d{10}$`},
	},
	constants.CountryBE: {
		constants.DocCNI:       {`\d{3}[ ]?\d{7}[ ]?\d{2}`, `^\d{12}$`},
		constants.DocPassport:  {`[A-Z]{2}\d{6}`, `^[A-Z]{2}\d{6}$`},
		constants.DocResidence: {`[A-Z][ ]?\d{7}[ ]?\d{2}`, `^[A-Z]\d{9}$`},
	},
	constants.CountryCH: {
		constants.DocCNI:       {`[A-Z]\d{7}`, `^[A-Z]\d{7}$`},
		constants.DocPassport:  {`[A-Z]\d{7}`, `^[A-Z]\d{7}$`},
		constants.DocResidence: {`[A-Z]{2}\d{7}`, `^[A-Z]{2}\d{7}$`},
	},
	constants.CountryLU: {
		constants.DocCNI:       {`\d{4}[ ]?\d{2}[ ]?\d{2}[ ]?\d{5}`, `^\d{13}$`},
		constants.DocPassport:  {`[A-Z]{2}\d{6}`, `^[A-Z]{2}\d{6}$`},
		constants.DocResidence: {`[A-Z]\d{7}`, `^[A-Z]\d{7}$`},
	},
	constants.CountryMA: {
		constants.DocCNI:       {`[A-Z]{1,2}\d{5,6}`, `^[A-Z]{1,2}\d{5,6}$`},
		constants.DocPassport:  {`[A-Z]{2}\d{7}`, `^[A-Z]{2}\d{7}$`},
		constants.DocResidence: {`[A-Z]\d{8}`, `^[A-Z]\d{8}$`},
	},
	constants.CountryDZ: {
		constants.DocCNI:       {`\d{9}[ ]?\d{9}`, `^\d{18}$`},
		constants.DocPassport:  {`\d{9}`, `^\d{9}$`},
		constants.DocResidence: {`[A-Z]\d{9}`, `^[A-Z]\d{9}$`},
	},
	constants.CountryTN: {
		constants.DocCNI:       {`\d{8}`, `^\d{8}$`},
		constants.DocPassport:  {`[A-Z]\d{6}`, `^[A-Z]\d{6}$`},
		constants.DocResidence: {`[A-Z]{2}\d{6}`, `^[A-Z]{2}\d{6}$`},
	},
}

func builtinSets() DocumentPatternSet {
	sets := DocumentPatternSet{Generic: genericRules()}
	for _, c := range constants.Countries() {
		formats, ok := builtinNumberFormats[c]
		if !ok {
			continue
		}
		fields := make(map[Field]*Rule, len(formats))
		for _, dt := range constants.NumberedDocumentTypes {
			f, ok := formats[dt]
			if !ok {
				continue
			}
			fields[NumberField(dt)] = mustRule(NumberField(dt), f.validator, boundedNumber(f.shape))
		}
		sets[ForCountry(c)] = fields
	}
	return sets
}
