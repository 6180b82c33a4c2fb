package advisory

// LocalizedText carries the bilingual copy the dashboard shows.
type LocalizedText struct {
	EN string `json:"en"`
	OD string `json:"od"`
}

// YieldRequest is the farm questionnaire submitted for an estimate.
// District, crop and farm size are mandatory; the agronomic readings
// are optional refinements.
type YieldRequest struct {
	District      string  `json:"district"`
	Crop          string  `json:"crop"`
	SowingDate    string  `json:"sowingDate,omitempty"`
	FarmSize      string  `json:"farmSize"`
	SoilPH        float64 `json:"soilPH,omitempty"`
	SoilN         float64 `json:"soilN,omitempty"`
	SoilP         float64 `json:"soilP,omitempty"`
	SoilK         float64 `json:"soilK,omitempty"`
	OrganicCarbon float64 `json:"organicCarbon,omitempty"`
	Rainfall      float64 `json:"rainfall,omitempty"`
	Temperature   float64 `json:"temperature,omitempty"`
	Humidity      float64 `json:"humidity,omitempty"`
}

// Factor describes one input's influence on the estimate.
type Factor struct {
	Name       string  `json:"name"`
	Impact     float64 `json:"impact"`
	Importance int     `json:"importance"`
}

// YieldPrediction is the estimate returned to the dashboard, in
// kilograms per hectare.
type YieldPrediction struct {
	PredictedYield  int             `json:"predictedYield"`
	Confidence      int             `json:"confidence"`
	Recommendations []LocalizedText `json:"recommendations"`
	Factors         []Factor        `json:"factors"`
}

// Severity grades a disease finding.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// DiseaseFinding is the triage result for one leaf image.
type DiseaseFinding struct {
	Disease    string        `json:"disease"`
	Confidence int           `json:"confidence"`
	Treatment  LocalizedText `json:"treatment"`
	Severity   Severity      `json:"severity"`
}
