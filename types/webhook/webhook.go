package webhook

import (
	"fmt"
	"strings"

	eventModel "puretrack/models/event"
)

// WebhookCreateRequest represents the request payload for registering a webhook
type WebhookCreateRequest struct {
	URL      string   `json:"url" validate:"required,url"`
	Events   []string `json:"events" validate:"required,min=1"`
	IsActive bool     `json:"is_active"`
}

// WebhookUpdateRequest carries partial updates; nil fields are left untouched.
type WebhookUpdateRequest struct {
	URL      *string  `json:"url,omitempty"`
	Events   []string `json:"events,omitempty"`
	IsActive *bool    `json:"is_active,omitempty"`
}

func (r WebhookCreateRequest) Validate() error {
	if err := validateURL(r.URL); err != nil {
		return err
	}
	if len(r.Events) == 0 {
		return fmt.Errorf("at least one event is required")
	}
	return validateEvents(r.Events)
}

func (r WebhookUpdateRequest) Validate() error {
	if r.URL != nil {
		if err := validateURL(*r.URL); err != nil {
			return err
		}
	}
	if r.Events != nil {
		return validateEvents(r.Events)
	}
	return nil
}

func validateURL(url string) error {
	if url == "" {
		return fmt.Errorf("url is required")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("url must start with http:// or https://")
	}
	return nil
}

func validateEvents(events []string) error {
	for _, e := range events {
		if !eventModel.EventType(e).IsValid() {
			return fmt.Errorf("event %q is not a recognized event type", e)
		}
	}
	return nil
}

// ApiKeyCreateRequest represents the request payload for creating an API key
type ApiKeyCreateRequest struct {
	Name   string   `json:"name" validate:"required,min=1,max=255"`
	Scopes []string `json:"scopes,omitempty"`
}

func (r ApiKeyCreateRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}
