package model

import "time"

// ResourceKind enumerates supported study resource types.
type ResourceKind string

const (
	ResourceKindLink  ResourceKind = "link"
	ResourceKindPDF   ResourceKind = "pdf"
	ResourceKindWord  ResourceKind = "word"
	ResourceKindImage ResourceKind = "image"
)

// Resource is study material attached to a topic.
type Resource struct {
	ID          int          `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Kind        ResourceKind `json:"kind" yaml:"kind"`
	Topic       string       `json:"topic" yaml:"topic"`
	URL         string       `json:"url" yaml:"url"`
	Description string       `json:"description,omitempty" yaml:"description"`
	CreatedAt   time.Time    `json:"created_at" yaml:"-"`
}

// ResourceFilter narrows a resource listing.
type ResourceFilter struct {
	Kind  string `form:"kind" binding:"omitempty,oneof=link pdf word image"`
	Topic string `form:"topic" binding:"omitempty,max=100"`
}

// CreateResourceRequest is the payload for registering a resource.
type CreateResourceRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=255"`
	Kind        string `json:"kind" binding:"required,oneof=link pdf word image"`
	Topic       string `json:"topic" binding:"required,max=100"`
	URL         string `json:"url" binding:"required,url,max=2048"`
	Description string `json:"description" binding:"omitempty,max=2000"`
}
