package model

import (
	"time"

	"golang.org/x/exp/slices"
)

type Eta struct {
	StopRoute StopRoute `json:"stopRoute" groups:"detail"`
	Time      time.Time `json:"time" groups:"detail"`
	Distance  *float64  `json:"distance,omitempty" groups:"detail"`
	Remark    string    `json:"remark" groups:"detail"`
	RealTime  bool      `json:"realTime" groups:"detail"`
}

func CompareEtas(a Eta, b Eta) int {
	return a.Time.Compare(b.Time)
}

func SortEtas(etas []Eta) {
	slices.SortStableFunc(etas, CompareEtas)
}
