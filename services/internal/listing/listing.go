// Package listing parses the inventory responses shared by the endpoint
// clients. The service answers listing paths with either a bare array of
// names or an array of objects keyed by name, id, or model.
package listing

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/petal-labs/bloom/core"
)

// Fetch retrieves a listing URL and parses it. Wire failures surface as
// errors; a response that parses to nothing usable yields the fallback
// names instead, matching the service's habit of reshaping these
// responses without notice.
func Fetch(ctx context.Context, exec core.Executor, service, url string, timeout time.Duration, advisory bool, fallback func() []string) ([]string, error) {
	resp, err := exec.Do(ctx, &core.Request{
		Service:         service,
		Method:          http.MethodGet,
		URL:             url,
		Timeout:         timeout,
		AdvisoryPayment: advisory,
	})
	if err != nil {
		return nil, err
	}
	if resp.Ignored {
		return fallback(), nil
	}
	names, ok := Parse(resp.Body)
	if !ok {
		return fallback(), nil
	}
	return names, nil
}

// Parse extracts names from a listing response body. ok is false when the
// body is not a listing or yields no names, in which case callers fall
// back to their compiled defaults.
func Parse(body []byte) ([]string, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, false
	}

	var names []string
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil && s != "" {
			names = append(names, s)
			continue
		}
		var obj struct {
			Name  string `json:"name"`
			ID    string `json:"id"`
			Model string `json:"model"`
		}
		if json.Unmarshal(item, &obj) != nil {
			continue
		}
		switch {
		case obj.Name != "":
			names = append(names, obj.Name)
		case obj.ID != "":
			names = append(names, obj.ID)
		case obj.Model != "":
			names = append(names, obj.Model)
		}
	}
	return names, len(names) > 0
}
