package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/exammaker/exammaker-backend/internal/model"
	"github.com/exammaker/exammaker-backend/internal/repository"
)

// ErrResourceNotFound is returned for unknown resource ids.
var ErrResourceNotFound = errors.New("resource not found")

// ResourceService handles study resources.
type ResourceService struct {
	resourceRepo *repository.ResourceRepository
}

// NewResourceService creates a new ResourceService.
func NewResourceService(resourceRepo *repository.ResourceRepository) *ResourceService {
	return &ResourceService{resourceRepo: resourceRepo}
}

// List returns resources matching filter.
func (s *ResourceService) List(ctx context.Context, filter model.ResourceFilter) ([]model.Resource, error) {
	resources, err := s.resourceRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	if resources == nil {
		resources = []model.Resource{}
	}
	return resources, nil
}

// Create registers a resource.
func (s *ResourceService) Create(ctx context.Context, req *model.CreateResourceRequest) (*model.Resource, error) {
	res := &model.Resource{
		Title:       strings.TrimSpace(req.Title),
		Kind:        model.ResourceKind(req.Kind),
		Topic:       strings.TrimSpace(req.Topic),
		URL:         req.URL,
		Description: strings.TrimSpace(req.Description),
	}
	if res.Title == "" {
		return nil, &FieldError{Field: "title", Reason: "must not be blank"}
	}
	if err := s.resourceRepo.Create(ctx, res); err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}
	return res, nil
}

// Delete removes a resource.
func (s *ResourceService) Delete(ctx context.Context, id int) error {
	if err := s.resourceRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResourceNotFound
		}
		return fmt.Errorf("delete resource: %w", err)
	}
	return nil
}
