// Package sp stores references and records in SharePoint Lists through
// Microsoft Graph.
package sp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"cargas/auth"
	"cargas/db/db"
	"cargas/libs/logging"
)

// Item is one list item as Graph returns it with expand=fields.
type Item struct {
	ID     string                 `json:"id"`
	Fields map[string]interface{} `json:"fields"`
}

type itemPage struct {
	Value    []Item `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

// Client talks to the list items of one SharePoint site.
type Client struct {
	baseURL string
	siteID  string
	session *auth.Session
	http    *http.Client
	logger  *zap.Logger
}

// NewClient authenticates every request through session. graphURL is the
// Graph API root, e.g. https://graph.microsoft.com/v1.0.
func NewClient(graphURL, siteID string, session *auth.Session, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(graphURL, "/"),
		siteID:  siteID,
		session: session,
		http:    session.Client(),
		logger:  logging.OrNop(logger),
	}
}

func (c *Client) itemsURL(list string) string {
	return fmt.Sprintf("%s/sites/%s/lists/%s/items", c.baseURL, url.PathEscape(c.siteID), url.PathEscape(list))
}

func (c *Client) itemURL(list, id string) string {
	return c.itemsURL(list) + "/" + url.PathEscape(id)
}

// do sends the request and classifies failures. The caller closes the body
// of a successful response.
func (c *Client) do(ctx context.Context, method, target string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if db.IsAuth(err) {
			return nil, err
		}
		return nil, &db.TransportError{Op: method + " " + target, Err: err}
	}
	if resp.StatusCode == http.StatusUnauthorized {
		c.session.Invalidate()
	}
	return resp, nil
}

func statusError(op string, resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &db.TransportError{
		Op:  op,
		Err: fmt.Errorf("graph answered %s: %s", resp.Status, strings.TrimSpace(string(detail))),
	}
}

// ListItems fetches every item of list, following @odata.nextLink.
func (c *Client) ListItems(ctx context.Context, list string) ([]Item, error) {
	next := c.itemsURL(list) + "?expand=fields&$top=999"
	items := []Item{}
	for next != "" {
		resp, err := c.do(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			err := statusError("list "+list, resp)
			resp.Body.Close()
			return nil, err
		}
		var page itemPage
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, &db.TransportError{Op: "list " + list, Err: fmt.Errorf("failed to decode items: %w", err)}
		}
		items = append(items, page.Value...)
		next = page.NextLink
	}
	c.logger.Debug("listed sharepoint items", zap.String("list", list), zap.Int("count", len(items)))
	return items, nil
}

func (c *Client) GetItem(ctx context.Context, list, id string) (*Item, error) {
	resp, err := c.do(ctx, http.MethodGet, c.itemURL(list, id)+"?expand=fields", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &db.NotFoundError{Entity: list, ID: id}
	case resp.StatusCode != http.StatusOK:
		return nil, statusError("get "+list+"/"+id, resp)
	}
	var item Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, &db.TransportError{Op: "get " + list + "/" + id, Err: fmt.Errorf("failed to decode item: %w", err)}
	}
	return &item, nil
}

// CreateItem returns the id Graph assigned.
func (c *Client) CreateItem(ctx context.Context, list string, fields map[string]interface{}) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, c.itemsURL(list), map[string]interface{}{"fields": fields})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", statusError("create in "+list, resp)
	}
	var item Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return "", &db.TransportError{Op: "create in " + list, Err: fmt.Errorf("failed to decode item: %w", err)}
	}
	return item.ID, nil
}

// UpdateFields patches only the given fields.
func (c *Client) UpdateFields(ctx context.Context, list, id string, fields map[string]interface{}) error {
	resp, err := c.do(ctx, http.MethodPatch, c.itemURL(list, id)+"/fields", fields)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &db.NotFoundError{Entity: list, ID: id}
	case resp.StatusCode >= 300:
		return statusError("update "+list+"/"+id, resp)
	}
	return nil
}

// DeleteItem treats an item that is already gone as deleted.
func (c *Client) DeleteItem(ctx context.Context, list, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, c.itemURL(list, id), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		c.logger.Debug("sharepoint item already deleted", zap.String("list", list), zap.String("id", id))
		return nil
	}
	if resp.StatusCode >= 300 {
		return statusError("delete "+list+"/"+id, resp)
	}
	return nil
}

// Forwarded is a raw Graph answer relayed by the proxy.
type Forwarded struct {
	Status      int
	ContentType string
	Body        []byte
}

// Forward relays a proxy call to list. GET without id lists items, POST
// creates one, PUT patches the fields of id and DELETE removes it. The
// body is passed through untouched.
func (c *Client) Forward(ctx context.Context, method, list, id string, body []byte) (*Forwarded, error) {
	var target string
	switch {
	case method == http.MethodGet && id == "":
		target = c.itemsURL(list) + "?expand=fields&$top=999"
	case method == http.MethodGet:
		target = c.itemURL(list, id) + "?expand=fields"
	case method == http.MethodPost && id == "":
		target = c.itemsURL(list)
	case method == http.MethodPut && id != "":
		method = http.MethodPatch
		target = c.itemURL(list, id) + "/fields"
	case method == http.MethodDelete && id != "":
		target = c.itemURL(list, id)
	default:
		return nil, db.NewValidationError("method", fmt.Sprintf("%s is not supported for this path", method))
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if db.IsAuth(err) {
			return nil, err
		}
		return nil, &db.TransportError{Op: "forward " + method + " " + list, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		c.session.Invalidate()
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &db.TransportError{Op: "forward " + method + " " + list, Err: err}
	}
	return &Forwarded{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}
