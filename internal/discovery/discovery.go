package discovery

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Endpoint is a backup server instance as seen by service discovery.
type Endpoint struct {
	Address string `yaml:"address"`
	ID      string `yaml:"id"`
}

// Provider supplies the discovered endpoints of a named link.
type Provider interface {
	Endpoints(ctx context.Context, link string) ([]Endpoint, error)
}

// Link is a role-to-role binding: the instances of the provider job plus the
// properties it publishes to consumers.
type Link struct {
	Instances  []Endpoint     `yaml:"instances"`
	Properties map[string]any `yaml:"properties"`
}

func (l Link) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Instances,
			validation.Each(validation.By(validateEndpoint)),
		),
	)
}

func validateEndpoint(value interface{}) error {
	ep, ok := value.(Endpoint)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be an Endpoint")
	}
	return validation.ValidateStruct(&ep,
		validation.Field(&ep.Address, validation.Required),
	)
}

// StaticProvider serves endpoints from materialized links, keyed by link name.
type StaticProvider struct {
	links map[string]Link
}

func NewStaticProvider(links map[string]Link) *StaticProvider {
	copied := make(map[string]Link, len(links))
	for name, link := range links {
		copied[name] = link
	}
	return &StaticProvider{links: copied}
}

// Endpoints returns a copy of the link's instances in discovery order. An
// unknown link yields no endpoints.
func (p *StaticProvider) Endpoints(ctx context.Context, link string) ([]Endpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l, ok := p.links[link]
	if !ok {
		return nil, nil
	}

	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("link %q: %w", link, err)
	}

	out := make([]Endpoint, len(l.Instances))
	copy(out, l.Instances)
	return out, nil
}

// Link returns the named link.
func (p *StaticProvider) Link(name string) (Link, bool) {
	l, ok := p.links[name]
	return l, ok
}
