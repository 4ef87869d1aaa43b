package dto

type GenerateQuestionsRequest struct {
	Category string `json:"category" validate:"required,max=64"`
	Context  string `json:"context" validate:"max=4000"`
}

type GenerateQuestionsResponse struct {
	Questions []string `json:"questions"`
}
