package util

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func RemoveDuplicateStrings(strings []string, ignoreList []string) []string {
	presentStrings := make(map[string]bool)
	var list []string

	for _, ignoreString := range ignoreList {
		presentStrings[ignoreString] = true
	}

	for _, item := range strings {
		if _, value := presentStrings[item]; !value && item != "" {
			presentStrings[item] = true
			list = append(list, item)
		}
	}
	return list
}

// ToTitleCase turns the upper case names used by the KMB endpoints into title case.
// A Caser keeps state between calls, so every call gets its own.
func ToTitleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// Characters the KMB endpoints still send as private use code points from their HKSCS mapping
var hkscsReplacer = strings.NewReplacer(
	"\ue88c", "埗",
)

func ConvertHkscs(s string) string {
	return hkscsReplacer.Replace(s)
}
