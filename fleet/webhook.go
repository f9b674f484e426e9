package fleet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cargas/db/db"
)

// Upper-case keys of the fleet webhook rows.
const (
	keyDriver      = "MOTORISTA"
	keyTruck       = "CAVALO"
	keyTrailer     = "CARRETA"
	keyDescription = "DESCRICAO_TRUNCADA"
)

// WebhookSource reads the fleet snapshot from an n8n webhook answering with
// a JSON array of rows keyed by upper-case field names.
type WebhookSource struct {
	URL    string
	Client *http.Client
}

func NewWebhookSource(url string, client *http.Client) *WebhookSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &WebhookSource{URL: url, Client: client}
}

func (s *WebhookSource) Fetch(ctx context.Context) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build fleet request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, &db.TransportError{Op: "GET fleet webhook", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &db.TransportError{Op: "read fleet webhook", Err: err}
	}
	if resp.StatusCode/100 != 2 {
		return nil, &db.TransportError{
			Op:  "GET fleet webhook",
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200)),
		}
	}

	records, err := ParseWebhookRows(body)
	if err != nil {
		return nil, &db.TransportError{Op: "decode fleet webhook", Err: err}
	}
	return records, nil
}

// ParseWebhookRows accepts a bare array or an object wrapping the array in
// "data". Key matching ignores case. Rows without a driver are skipped.
func ParseWebhookRows(body []byte) ([]Record, error) {
	body = bytes.TrimSpace(body)
	var rows []map[string]interface{}
	if len(body) > 0 && body[0] == '{' {
		var wrapped struct {
			Data []map[string]interface{} `json:"data"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, err
		}
		rows = wrapped.Data
	} else if err := json.Unmarshal(body, &rows); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		fields := make(map[string]string, len(row))
		for k, v := range row {
			fields[strings.ToUpper(strings.TrimSpace(k))] = stringify(v)
		}
		record := Record{
			DriverName:   strings.TrimSpace(fields[keyDriver]),
			TruckPlate:   strings.TrimSpace(fields[keyTruck]),
			TrailerPlate: strings.TrimSpace(fields[keyTrailer]),
			Description:  fields[keyDescription],
		}
		if record.DriverName == "" {
			continue
		}
		for _, k := range []string{keyDriver, keyTruck, keyTrailer, keyDescription} {
			delete(fields, k)
		}
		if len(fields) > 0 {
			record.Extra = fields
		}
		records = append(records, record)
	}
	return records, nil
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
