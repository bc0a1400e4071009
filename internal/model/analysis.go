package model

// AnalysisResult holds the complete result of analyzing a URL.
type AnalysisResult struct {
	URL                string      `json:"url"`
	IsPhishing         bool        `json:"is_phishing"`
	Confidence         float64     `json:"confidence"`
	RiskLevel          RiskLevel   `json:"risk_level"`
	RiskIndicators     []string    `json:"risk_indicators"`
	Features           Features    `json:"features"`
	NetworkInfo        NetworkInfo `json:"network_info"`
	DetectionTimestamp string      `json:"detection_timestamp"`
	AnalysisTimeMs     int64       `json:"analysis_time_ms"`
}

// RiskLevel is the coarse risk bucket derived from the classifier confidence.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Features is the human-readable subset of the extracted features.
type Features struct {
	URLSimilarityIndex   float64 `json:"url_similarity_index"`
	CharContinuationRate float64 `json:"char_continuation_rate"`
	URLCharProb          float64 `json:"url_char_prob"`
	LetterRatio          float64 `json:"letter_ratio"`
	DigitRatio           float64 `json:"digit_ratio"`
	SpecialChars         int     `json:"special_chars"`
	SpecialCharRatio     float64 `json:"special_char_ratio"`
	IsHTTPS              int     `json:"is_https"`
	NoOfDotInURL         int     `json:"no_of_dot_in_url"`
	NoOfDashInURL        int     `json:"no_of_dash_in_url"`
	NoOfDigitsInURL      int     `json:"no_of_digits_in_url"`
	NoOfPathSegments     int     `json:"no_of_path_segments"`
	TLD                  string  `json:"tld"`
	Domain               string  `json:"domain"`
	IsSafeMatch          int     `json:"is_safe_match"`

	URLIsLive        int     `json:"url_is_live"`
	HasTitle         int     `json:"has_title"`
	DomainTitleMatch float64 `json:"domain_title_match"`
	URLTitleMatch    float64 `json:"url_title_match"`
	HasFavicon       int     `json:"has_favicon"`
	HasRobots        int     `json:"has_robots"`
	IsResponsive     int     `json:"is_responsive"`
	HasDescription   int     `json:"has_description"`
	HasSocialNet     int     `json:"has_social_net"`
	HasSubmitButton  int     `json:"has_submit_button"`
	HasHiddenFields  int     `json:"has_hidden_fields"`
	HasPayment       int     `json:"has_payment"`
	HasCopyright     int     `json:"has_copyright"`
	NoOfJS           int     `json:"no_of_js"`
	NoOfSelfRef      int     `json:"no_of_self_ref"`
	Title            string  `json:"title,omitempty"`
}

// NetworkInfo describes where the URL led and where the final host lives.
type NetworkInfo struct {
	RedirectChain []Hop     `json:"redirect_chain"`
	FinalURL      string    `json:"final_url"`
	IPAddress     *string   `json:"ip_address"`
	Location      *Location `json:"location"`
}

// Hop is a single redirect response in a redirect chain.
type Hop struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
}

// Location is the geolocation of the final host's IP address.
type Location struct {
	Country string `json:"country,omitempty"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`
	ISP     string `json:"isp,omitempty"`
	Lat     string `json:"lat,omitempty"`
	Lon     string `json:"lon,omitempty"`
}

// BatchItem is one entry of a batch analysis; exactly one of Result and Error is set.
type BatchItem struct {
	URL    string          `json:"url"`
	Result *AnalysisResult `json:"result,omitempty"`
	Error  *ErrorResponse  `json:"error,omitempty"`
}

// SessionStats summarizes the analyses served since the session started.
type SessionStats struct {
	TotalAnalyzed      int     `json:"total_analyzed"`
	PhishingDetected   int     `json:"phishing_detected"`
	LegitimateDetected int     `json:"legitimate_detected"`
	AvgConfidence      float64 `json:"avg_confidence"`
	SessionStart       string  `json:"session_start"`
}

// Health is the JSON shape of the health endpoint.
type Health struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Version     string `json:"version"`
	Timestamp   string `json:"timestamp"`
}

// ErrorResponse is the JSON shape returned on failure.
type ErrorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}
