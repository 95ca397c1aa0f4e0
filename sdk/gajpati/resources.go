package gajpati

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Payload carries the writable fields of a resource mutation. When Files is
// non-empty the request is sent as multipart/form-data (image-bearing
// resources); otherwise Fields are encoded as a JSON object.
type Payload struct {
	Fields map[string]any
	Files  []FilePart
}

// crud implements the operations every admin resource shares. Endpoints
// follow the backend convention: collection at base, item at base/{id}.
type crud struct {
	client *Client
	base   string
}

// List fetches the collection. Query values are passed through verbatim so
// callers control paging, filtering and sorting.
func (c crud) List(ctx context.Context, query url.Values) (gjson.Result, error) {
	return c.client.Request(ctx, c.base, &RequestOptions{Query: query})
}

func (c crud) Get(ctx context.Context, id string) (gjson.Result, error) {
	return c.client.Request(ctx, c.base+"/"+id, nil)
}

func (c crud) Create(ctx context.Context, p Payload) (gjson.Result, error) {
	opts, err := writeOptions(http.MethodPost, p)
	if err != nil {
		return gjson.Result{}, err
	}
	return c.client.Request(ctx, c.base, opts)
}

func (c crud) Update(ctx context.Context, id string, p Payload) (gjson.Result, error) {
	opts, err := writeOptions(http.MethodPatch, p)
	if err != nil {
		return gjson.Result{}, err
	}
	return c.client.Request(ctx, c.base+"/"+id, opts)
}

func (c crud) Delete(ctx context.Context, id string) (gjson.Result, error) {
	return c.client.Request(ctx, c.base+"/"+id, &RequestOptions{Method: http.MethodDelete})
}

// statusCrud adds the soft-delete lifecycle some resources expose.
type statusCrud struct {
	crud
}

// ToggleStatus flips the resource between active and inactive.
func (c statusCrud) ToggleStatus(ctx context.Context, id string) (gjson.Result, error) {
	return c.client.Request(ctx, c.base+"/"+id+"/toggle-status", &RequestOptions{Method: http.MethodPatch})
}

// PermanentDelete removes the resource entirely, bypassing soft delete.
func (c statusCrud) PermanentDelete(ctx context.Context, id string) (gjson.Result, error) {
	return c.client.Request(ctx, c.base+"/"+id+"/permanent", &RequestOptions{Method: http.MethodDelete})
}

// writeOptions encodes a Payload. JSON bodies are assembled with sjson so
// dotted field keys ("seo.title") land as nested objects.
func writeOptions(method string, p Payload) (*RequestOptions, error) {
	if len(p.Files) > 0 {
		fields := make(map[string]string, len(p.Fields))
		for k, v := range p.Fields {
			fields[k] = fmt.Sprint(v)
		}
		return &RequestOptions{Method: method, Fields: fields, Files: p.Files}, nil
	}

	body := []byte("{}")
	for k, v := range p.Fields {
		updated, err := sjson.SetBytes(body, k, v)
		if err != nil {
			return nil, fmt.Errorf("gajpati client: encode field %s failed: %w", k, err)
		}
		body = updated
	}
	return &RequestOptions{Method: method, Body: body}, nil
}

// ProductService manages the product catalogue.
type ProductService struct {
	statusCrud
}

// Search queries the dedicated product search endpoint.
func (s *ProductService) Search(ctx context.Context, term string, query url.Values) (gjson.Result, error) {
	merged := url.Values{}
	for k, vs := range query {
		merged[k] = vs
	}
	merged.Set("q", term)
	return s.client.Request(ctx, s.base+"/search", &RequestOptions{Query: merged})
}

// PlantService manages manufacturing plants.
type PlantService struct {
	statusCrud
}

// NatureService manages product natures (categories).
type NatureService struct {
	statusCrud
}

// InquiryService manages customer inquiries.
type InquiryService struct {
	statusCrud
}

// BlogService manages blog posts. Blogs have no status or permanent-delete
// variants.
type BlogService struct {
	crud
}

// QuoteService manages quote requests.
type QuoteService struct {
	crud
}

// UserService manages admin user accounts.
type UserService struct {
	crud
}

// SubscriberService manages newsletter subscribers, which only support
// listing and deletion.
type SubscriberService struct {
	client *Client
}

func (s *SubscriberService) List(ctx context.Context, query url.Values) (gjson.Result, error) {
	return s.client.Request(ctx, "/subscribers", &RequestOptions{Query: query})
}

func (s *SubscriberService) Delete(ctx context.Context, id string) (gjson.Result, error) {
	return s.client.Request(ctx, "/subscribers/"+id, &RequestOptions{Method: http.MethodDelete})
}

// Services bundles every resource service over one client.
type Services struct {
	Products    *ProductService
	Plants      *PlantService
	Natures     *NatureService
	Blogs       *BlogService
	Inquiries   *InquiryService
	Quotes      *QuoteService
	Subscribers *SubscriberService
	Users       *UserService
}

// NewServices constructs the full service set.
func NewServices(client *Client) *Services {
	return &Services{
		Products:    &ProductService{statusCrud{crud{client: client, base: "/products"}}},
		Plants:      &PlantService{statusCrud{crud{client: client, base: "/plants"}}},
		Natures:     &NatureService{statusCrud{crud{client: client, base: "/natures"}}},
		Blogs:       &BlogService{crud{client: client, base: "/blogs"}},
		Inquiries:   &InquiryService{statusCrud{crud{client: client, base: "/inquiries"}}},
		Quotes:      &QuoteService{crud{client: client, base: "/quotes"}},
		Subscribers: &SubscriberService{client: client},
		Users:       &UserService{crud{client: client, base: "/users"}},
	}
}
