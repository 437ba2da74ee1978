package nadlan

// QueryParams is the opaque location handle understood by the registry's
// paging endpoint, produced by Resolve.
type QueryParams struct {
	ObjectID          string  `json:"object_id"`
	ObjectIDType      string  `json:"object_id_type"`
	ObjectKey         string  `json:"object_key"`
	CurrentLevel      int     `json:"current_level"`
	PageNo            int     `json:"page_no"`
	FilterRoomNum     int     `json:"filter_room_num"`
	ResultLabel       string  `json:"result_label"`
	ResultType        string  `json:"result_type"`
	DescLayerID       string  `json:"desc_layer_id"`
	X                 float64 `json:"x"`
	Y                 float64 `json:"y"`
	OriginalSearch    string  `json:"original_search"`
	OrderByField      string  `json:"order_by_field"`
	OrderByDescending bool    `json:"order_by_descending"`
	Gush              string  `json:"gush"`
	Parcel            string  `json:"parcel"`
	IsHistorical      bool    `json:"is_historical"`
}

// resolveResponse is the raw shape of the GetDataByQuery endpoint.
type resolveResponse struct {
	ObjectID     any     `json:"ObjectID"`
	ObjectIDType string  `json:"ObjectIDType"`
	ObjectKey    string  `json:"ObjectKey"`
	CurrentLevel *int    `json:"CurrentLavel"`
	ResultLabel  string  `json:"ResultLable"`
	ResultType   any     `json:"ResultType"`
	DescLayerID  string  `json:"DescLayerID"`
	X            any     `json:"X"`
	Y            any     `json:"Y"`
	Gush         any     `json:"Gush"`
	Parcel       any     `json:"Parcel"`
}

// dealsResponse is the raw shape of one GetAssestAndDeals page.
type dealsResponse struct {
	AllResults []map[string]any `json:"AllResults"`
	IsLastPage *bool            `json:"IsLastPage"`
}

// dealsRequest is the page-fetch payload. Field names (including the
// upstream misspellings) follow the registry API.
type dealsRequest struct {
	ObjectID             string         `json:"ObjectID"`
	ObjectIDType         string         `json:"ObjectIDType"`
	ObjectKey            string         `json:"ObjectKey"`
	CurrentLavel         int            `json:"CurrentLavel"`
	PageNo               int            `json:"PageNo"`
	MoreAssestsType      int            `json:"MoreAssestsType"`
	FillterRoomNum       int            `json:"FillterRoomNum"`
	GridDisplayType      int            `json:"GridDisplayType"`
	ResultLable          string         `json:"ResultLable"`
	ResultType           string         `json:"ResultType"`
	DescLayerID          string         `json:"DescLayerID"`
	X                    float64        `json:"X"`
	Y                    float64        `json:"Y"`
	OriginalSearchString string         `json:"OriginalSearchString"`
	OrderByFilled        string         `json:"OrderByFilled"`
	OrderByDescending    bool           `json:"OrderByDescending"`
	Gush                 string         `json:"Gush"`
	Parcel               string         `json:"Parcel"`
	QueryMapParams       map[string]any `json:"QueryMapParams"`
	IsHistorical         bool           `json:"isHistorical"`
}

// lookupItem is one entry of the street/neighborhood lookup endpoints.
type lookupItem struct {
	Text string `json:"Text"`
}
