package model

// Topic groups bank questions and resources by subject matter.
type Topic struct {
	ID            int    `json:"id" yaml:"id"`
	Title         string `json:"title" yaml:"title"`
	QuestionCount int    `json:"question_count" yaml:"-"`
}

// TopicRequest is the payload for creating or renaming a topic.
type TopicRequest struct {
	Title string `json:"title" binding:"required,min=1,max=100"`
}
