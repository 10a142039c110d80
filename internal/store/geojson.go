package store

// FeatureCollection is a minimal GeoJSON document wrapping incident records,
// the shape map frontends consume directly.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one GeoJSON feature: a point geometry plus incident properties.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry is a GeoJSON point. Coordinates are [longitude, latitude] per the
// GeoJSON specification — note the reversed order relative to Incident.
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// ToGeoJSON converts a query result into a GeoJSON FeatureCollection.
func ToGeoJSON(incidents []Incident) FeatureCollection {
	fc := FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]Feature, 0, len(incidents)),
	}
	for _, inc := range incidents {
		props := map[string]any{
			"id":        inc.ID,
			"timestamp": inc.Timestamp,
			"domain":    inc.Domain,
			"severity":  inc.Severity,
			"title":     inc.Title,
		}
		if inc.Description != "" {
			props["description"] = inc.Description
		}
		if inc.Status != "" {
			props["status"] = inc.Status
		}
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: [2]float64{inc.Longitude, inc.Latitude},
			},
			Properties: props,
		})
	}
	return fc
}
