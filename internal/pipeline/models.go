package pipeline

// Direction is the predicted movement of the next candle.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// Valid reports whether d is one of the two allowed values.
func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// Prediction is a directional call with a confidence probability in [0,1].
// Immutable once produced.
type Prediction struct {
	Direction   Direction `json:"direction"`
	Probability float64   `json:"probability"`
}

// ChartAssessment is the classifier stage output. Prediction is present
// if and only if IsValidChart is true; the pipeline treats a true/nil
// combination as a distinct failure state rather than coercing it.
type ChartAssessment struct {
	IsValidChart bool        `json:"isValidChart"`
	Prediction   *Prediction `json:"prediction,omitempty"`
}

// AnalysisResult is the pipeline's sole output: a flat record the caller
// can always render without branching beyond the documented optionality.
type AnalysisResult struct {
	Success        bool        `json:"success"`
	IsValidChart   bool        `json:"isValidChart"`
	Prediction     *Prediction `json:"prediction,omitempty"`
	AnnotatedImage string      `json:"annotatedImage,omitempty"` // data URI
	Disclaimer     string      `json:"disclaimer,omitempty"`
	Error          string      `json:"error,omitempty"`
}

// User-facing messages for the non-success terminal states.
const (
	msgInvalidInput    = "The uploaded file is not a valid chart image. Please upload a screenshot of a trading chart."
	msgNotAChart       = "This image does not appear to be a trading chart. Please upload a clear screenshot of a binary options chart."
	msgNoPrediction    = "The chart was recognized but a prediction could not be produced. Please try again."
	msgUpstreamFailure = "Analysis failed due to a temporary problem. Please try again in a moment."
)

// FallbackDisclaimer renders when disclaimer generation fails. It covers
// the five required disclosure points verbatim.
const FallbackDisclaimer = "Risk warning: trading binary options carries a high risk of loss and may " +
	"result in the loss of your entire capital. This prediction carries no guarantee of accuracy. " +
	"Trade only with capital you can afford to lose, and seek independent financial advice before trading."
