package handler

type StructuredRequest struct {
	Topic       string `json:"topic"`
	MaxArticles *int   `json:"max_articles"`
}

type BriefingResponse struct {
	ID                     int64  `json:"id"`
	RequestID              string `json:"request_id"`
	Topic                  string `json:"topic"`
	ArticleCount           int    `json:"article_count"`
	PositiveOpinion        string `json:"positive_opinion"`
	NegativeConcern        string `json:"negative_concern"`
	ConstructiveSuggestion string `json:"constructive_suggestion"`
	ProcessingTime         string `json:"processing_time"`
	CreatedAt              string `json:"created_at"`
}

type BriefingsResponse struct {
	Topic   string             `json:"topic,omitempty"`
	Latest  *BriefingResponse  `json:"latest"`
	History []BriefingResponse `json:"history"`
	Total   int                `json:"total"`
	Limit   int                `json:"limit"`
	Offset  int                `json:"offset"`
}

type JobResponse struct {
	RequestID string            `json:"request_id"`
	Status    string            `json:"status"`
	Error     string            `json:"error,omitempty"`
	Briefing  *BriefingResponse `json:"briefing,omitempty"`
}

type ArticleResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	HasFullText bool   `json:"has_full_text"`
	UpdatedAt   string `json:"updated_at"`
}

type ArticlesResponse struct {
	Articles []ArticleResponse `json:"articles"`
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}
