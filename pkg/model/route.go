package model

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type RouteID struct {
	Number string `json:"number" groups:"cache,detail"`
	Bound  int    `json:"bound" groups:"cache,detail"`
}

// RouteBound is the key used to group stop routes of the same route direction
func (r RouteID) RouteBound() string {
	return fmt.Sprintf("%s-%d", r.Number, r.Bound)
}

func (r RouteID) String() string {
	return r.RouteBound()
}

// CompareRoutes orders route numbers the way they are shown on bus stop signs.
// Numbers starting with a digit come first, then those starting with a letter;
// within those by letter prefix, number, suffix and finally bound.
func CompareRoutes(a RouteID, b RouteID) int {
	aPrefix, aNumber, aSuffix := splitRouteNumber(a.Number)
	bPrefix, bNumber, bSuffix := splitRouteNumber(b.Number)

	if c := strings.Compare(aPrefix, bPrefix); c != 0 {
		return c
	}
	if aNumber != bNumber {
		if aNumber < bNumber {
			return -1
		}
		return 1
	}
	if c := strings.Compare(aSuffix, bSuffix); c != 0 {
		return c
	}
	if a.Bound != b.Bound {
		if a.Bound < b.Bound {
			return -1
		}
		return 1
	}

	return 0
}

func splitRouteNumber(number string) (string, int, string) {
	prefixEnd := strings.IndexFunc(number, unicode.IsDigit)
	if prefixEnd == -1 {
		return number, 0, ""
	}

	numberEnd := prefixEnd
	for numberEnd < len(number) && number[numberEnd] >= '0' && number[numberEnd] <= '9' {
		numberEnd++
	}

	n, _ := strconv.Atoi(number[prefixEnd:numberEnd])

	return number[:prefixEnd], n, number[numberEnd:]
}
