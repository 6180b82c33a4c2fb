package advisory

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

var (
	// ErrMissingFields signals a yield request without the mandatory
	// district, crop or farm size.
	ErrMissingFields = errors.New("advisory: district, crop and farm size are required")
	// ErrEmptyImage signals a disease analysis without image data.
	ErrEmptyImage = errors.New("advisory: no image supplied")
)

// PredictionService produces crop yield estimates and disease triage.
// The session core never calls it; only the HTTP layer does.
type PredictionService interface {
	PredictYield(ctx context.Context, req YieldRequest) (YieldPrediction, error)
	AnalyzeLeafImage(ctx context.Context, image []byte) (DiseaseFinding, error)
}

// baseYields are the reference yields (kg/ha) per crop the estimate is
// anchored on.
var baseYields = map[string]int{
	"rice":      2600,
	"maize":     1800,
	"pulses":    1200,
	"groundnut": 1700,
	"sesame":    700,
	"sugarcane": 65000,
	"wheat":     2200,
}

const fallbackYield = 2000

var yieldRecommendations = []LocalizedText{
	{
		EN: "Apply 120 kg Urea + 60 kg DAP per hectare based on soil N levels. Source: ICAR Fertilizer Guidelines 2023",
		OD: "ମାଟି N ସ୍ତର ଆଧାରରେ ହେକ୍ଟର ପ୍ରତି 120 କିଲୋ ୟୁରିଆ + 60 କିଲୋ DAP ପ୍ରୟୋଗ କରନ୍ତୁ। ଉତ୍ସ: ICAR ସାର ଗାଇଡଲାଇନ୍ସ 2023",
	},
	{
		EN: "Maintain soil moisture at 80% field capacity during flowering stage. Source: IMD Weather Data Analysis",
		OD: "ଫୁଲ ପର୍ଯ୍ୟାୟରେ ମାଟିର ଆର୍ଦ୍ରତା 80% କ୍ଷେତ୍ର କ୍ଷମତାରେ ବଜାୟ ରଖନ୍ତୁ। ଉତ୍ସ: IMD ପାଣିପାଗ ତଥ୍ୟ ବିଶ୍ଳେଷଣ",
	},
	{
		EN: "Monitor for pest attacks during high humidity periods (>85%). Source: Odisha Agriculture Dept Report 2023",
		OD: "ଅଧିକ ଆର୍ଦ୍ରତା ସମୟରେ (>85%) କୀଟପତଙ୍ଗ ଆକ୍ରମଣ ପାଇଁ ନଜର ରଖନ୍ତୁ। ଉତ୍ସ: ଓଡ଼ିଶା କୃଷି ବିଭାଗ ରିପୋର୍ଟ 2023",
	},
}

var yieldFactors = []Factor{
	{Name: "Rainfall", Impact: 0.25, Importance: 85},
	{Name: "Soil Nutrients", Impact: 0.22, Importance: 78},
	{Name: "Temperature", Impact: 0.18, Importance: 72},
	{Name: "Humidity", Impact: 0.15, Importance: 65},
	{Name: "Soil pH", Impact: 0.12, Importance: 58},
	{Name: "Organic Carbon", Impact: 0.08, Importance: 45},
}

// findings is the fixed triage table one result is drawn from.
var findings = []DiseaseFinding{
	{
		Disease:    "Leaf Blight",
		Confidence: 92,
		Treatment: LocalizedText{
			EN: "Apply Copper-based fungicide spray. Remove affected leaves. Ensure proper drainage.",
			OD: "ତାମ୍ର ଆଧାରିତ କବକନାଶକ ସ୍ପ୍ରେ କରନ୍ତୁ। ପ୍ରଭାବିତ ପତ୍ର ହଟାନ୍ତୁ। ଉପଯୁକ୍ତ ନିଷ୍କାସନ ସୁନିଶ୍ଚିତ କରନ୍ତୁ।",
		},
		Severity: SeverityHigh,
	},
	{
		Disease:    "Bacterial Wilt",
		Confidence: 87,
		Treatment: LocalizedText{
			EN: "Use resistant varieties. Apply soil drench with Streptomycin. Avoid waterlogged conditions.",
			OD: "ପ୍ରତିରୋଧୀ କିସମ ବ୍ୟବହାର କରନ୍ତୁ। ଷ୍ଟ୍ରେପ୍ଟୋମାଇସିନ୍ ସହିତ ମାଟି ଭିଜାନ୍ତୁ। ଜଳଜମା ଅବସ୍ଥାରୁ ଦୂରେ ରୁହନ୍ତୁ।",
		},
		Severity: SeverityHigh,
	},
	{
		Disease:    "Rust",
		Confidence: 94,
		Treatment: LocalizedText{
			EN: "Apply Mancozeb fungicide. Improve air circulation. Remove infected plant debris.",
			OD: "ମ୍ୟାନକୋଜେବ୍ କବକନାଶକ ସ୍ପ୍ରେ କରନ୍ତୁ। ବାୟୁ ସଞ୍ଚାଳନ ଉନ୍ନତ କରନ୍ତୁ। ସଂକ୍ରମିତ ଉଦ୍ଭିଦ ଅବଶିଷ୍ଟାଂଶ ହଟାନ୍ତୁ।",
		},
		Severity: SeverityMedium,
	},
	{
		Disease:    "Healthy",
		Confidence: 96,
		Treatment: LocalizedText{
			EN: "Your crop appears healthy! Continue current care practices. Monitor regularly for any changes.",
			OD: "ଆପଣଙ୍କ ଫସଲ ସୁସ୍ଥ ଦେଖାଯାଉଛି! ବର୍ତ୍ତମାନର ଯତ୍ନ ଅଭ୍ୟାସ ଜାରି ରଖନ୍ତୁ। କୌଣସି ପରିବର୍ତ୍ତନ ପାଇଁ ନିୟମିତ ନଜର ରଖନ୍ତୁ।",
		},
		Severity: SeverityLow,
	},
}

// Simulated implements PredictionService with the dashboard's canned
// tables. The delay mimics model inference time and is zero in tests.
type Simulated struct {
	delay time.Duration
	rand  *rand.Rand
}

var _ PredictionService = (*Simulated)(nil)

// NewSimulated builds the simulator. A nil rng falls back to a
// time-seeded source.
func NewSimulated(delay time.Duration, rng *rand.Rand) *Simulated {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulated{delay: delay, rand: rng}
}

// PredictYield anchors on the crop's base yield, spreads it by up to
// ±200 kg/ha and attaches the fixed recommendation and factor tables.
func (s *Simulated) PredictYield(ctx context.Context, req YieldRequest) (YieldPrediction, error) {
	if req.District == "" || req.Crop == "" || req.FarmSize == "" {
		return YieldPrediction{}, ErrMissingFields
	}
	if err := s.wait(ctx); err != nil {
		return YieldPrediction{}, err
	}

	base, ok := baseYields[req.Crop]
	if !ok {
		base = fallbackYield
	}

	variation := int((s.rand.Float64() - 0.5) * 400)
	return YieldPrediction{
		PredictedYield:  base + variation,
		Confidence:      85 + s.rand.Intn(11),
		Recommendations: yieldRecommendations,
		Factors:         yieldFactors,
	}, nil
}

// AnalyzeLeafImage draws one finding from the triage table.
func (s *Simulated) AnalyzeLeafImage(ctx context.Context, image []byte) (DiseaseFinding, error) {
	if len(image) == 0 {
		return DiseaseFinding{}, ErrEmptyImage
	}
	if err := s.wait(ctx); err != nil {
		return DiseaseFinding{}, err
	}

	return findings[s.rand.Intn(len(findings))], nil
}

func (s *Simulated) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}
	select {
	case <-time.After(s.delay):
		return nil
	case <-ctx.Done():
		return fmt.Errorf("advisory: %w", ctx.Err())
	}
}
