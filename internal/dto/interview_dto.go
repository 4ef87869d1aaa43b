package dto

type CompleteInterviewRequest struct {
	SessionId  string `json:"session_id" validate:"required"`
	Transcript string `json:"transcript" validate:"required"`
	Title      string `json:"title" validate:"max=255"`
}

type QuickNoteRequest struct {
	SessionId string `json:"session_id" validate:"required"`
	Content   string `json:"content" validate:"required"`
	Title     string `json:"title" validate:"max=255"`
}
