package wikipedia

import "encoding/json"

// queryResponse is the shape shared by action=query calls on Wikipedia and
// Commons. Pages are keyed by page id, "-1" for missing titles.
type queryResponse struct {
	Query struct {
		Pages     map[string]page `json:"pages"`
		Search    []SearchHit     `json:"search"`
		Redirects []struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"redirects"`
	} `json:"query"`
}

type page struct {
	PageID   int             `json:"pageid"`
	Title    string          `json:"title"`
	Missing  json.RawMessage `json:"missing,omitempty"`
	Extract  string          `json:"extract"`
	Original *struct {
		Source string `json:"source"`
	} `json:"original"`
	ImageInfo []struct {
		URL string `json:"url"`
	} `json:"imageinfo"`
}

// PageImage is the lead image of an article together with the title the
// lookup resolved to after redirects.
type PageImage struct {
	Title string
	URL   string
}

// SearchHit is one Commons full text search result.
type SearchHit struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

type claimsResponse struct {
	Claims map[string][]struct {
		MainSnak struct {
			DataValue struct {
				Value any `json:"value"`
			} `json:"datavalue"`
		} `json:"mainsnak"`
	} `json:"claims"`
}
