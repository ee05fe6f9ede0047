package kmb

import "fmt"

type Language string

const (
	English            Language = "en"
	TraditionalChinese Language = "zh-hant"
	SimplifiedChinese  Language = "zh-hans"
)

var Languages = []Language{English, TraditionalChinese, SimplifiedChinese}

func ParseLanguage(s string) (Language, error) {
	language := Language(s)
	if !language.Valid() {
		return "", fmt.Errorf("%w: %s", ErrUnknownLanguage, s)
	}

	return language, nil
}

func (l Language) Valid() bool {
	switch l {
	case English, TraditionalChinese, SimplifiedChinese:
		return true
	}

	return false
}

// etaLanguage is the lang parameter of the ETA endpoint
func (l Language) etaLanguage() string {
	switch l {
	case English:
		return "en"
	case SimplifiedChinese:
		return "sc"
	default:
		return "tc"
	}
}

// pick chooses between the English and Chinese columns of a variant record
func (l Language) pick(english string, chinese string) string {
	if l == English {
		return english
	}

	return chinese
}

func (l Language) stopName(record stopRecord) string {
	switch l {
	case English:
		return record.EName
	case SimplifiedChinese:
		return record.SCName
	default:
		return record.CName
	}
}
