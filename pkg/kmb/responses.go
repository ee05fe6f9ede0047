package kmb

import (
	"encoding/json"
	"strconv"
	"strings"
)

// flexibleInt accepts numbers sent either as JSON numbers or as space padded strings
type flexibleInt int

func (i *flexibleInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*i = 0
		return nil
	}

	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*i = 0
			return nil
		}
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return err
	}

	*i = flexibleInt(n)
	return nil
}

type routeBoundRecord struct {
	Route       string      `json:"ROUTE"`
	Bound       flexibleInt `json:"BOUND"`
	ServiceType flexibleInt `json:"SERVICE_TYPE"`
}

type specialRouteResponse struct {
	Routes []variantRecord `json:"routes"`
}

type variantRecord struct {
	ServiceType    flexibleInt `json:"ServiceType"`
	Bound          flexibleInt `json:"Bound"`
	OriginEng      string      `json:"Origin_ENG"`
	OriginChi      string      `json:"Origin_CHI"`
	DestinationEng string      `json:"Destination_ENG"`
	DestinationChi string      `json:"Destination_CHI"`
	DescEng        string      `json:"Desc_ENG"`
	DescChi        string      `json:"Desc_CHI"`
}

type stopsResponse struct {
	RouteStops []stopRecord `json:"routeStops"`
}

type stopRecord struct {
	BSICode   string      `json:"BSICode"`
	Direction string      `json:"Direction"`
	Seq       flexibleInt `json:"Seq"`
	EName     string      `json:"EName"`
	CName     string      `json:"CName"`
	SCName    string      `json:"SCName"`
}
