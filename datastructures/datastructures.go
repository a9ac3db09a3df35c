package datastructures

const (
	LabelCancer    = "Cancer"
	LabelNonCancer = "Non-cancer"
)

const (
	SuggestionCancer    = "Segera periksa ke dokter!"
	SuggestionNonCancer = "Penyakit kanker tidak terdeteksi."
)

type PredictionRecord struct {
	Id         string `json:"id"`
	Result     string `json:"result"`
	Suggestion string `json:"suggestion"`
	CreatedAt  string `json:"createdAt"`
}

type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
