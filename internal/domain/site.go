package domain

// Site is a monitored hydrogeological site: a named location grouping one or
// more boreholes.
type Site struct {
	RecordMeta

	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Elevation   float64 `json:"elevation,omitempty"`
	Region      string  `json:"region,omitempty"`
}

func (s *Site) Kind() RecordKind { return KindSite }

// Borehole is a drilled hole at a site.
type Borehole struct {
	RecordMeta

	SiteID         string  `json:"site_id"`
	Name           string  `json:"name"`
	TotalDepth     float64 `json:"total_depth"`
	Diameter       float64 `json:"diameter,omitempty"`
	CasingDepth    float64 `json:"casing_depth,omitempty"`
	DrillingMethod string  `json:"drilling_method,omitempty"`
	DrilledAt      string  `json:"drilled_at,omitempty"`
}

func (b *Borehole) Kind() RecordKind { return KindBorehole }
