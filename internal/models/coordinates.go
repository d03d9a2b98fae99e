package models

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location is the origin of a discovery run.
type Location struct {
	Name        string      `json:"name"`
	Coordinates Coordinates `json:"coordinates"`
	Source      string      `json:"source,omitempty"` // manual, gps, ip
}

const (
	SourceManual = "manual"
	SourceGPS    = "gps"
	SourceIP     = "ip"
)
