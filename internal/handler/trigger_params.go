package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// triggerParams normalizes GET query parameters and POST JSON bodies into one
// lookup, so both trigger forms share identical semantics.
type triggerParams map[string]any

func parseTriggerParams(r *http.Request) (triggerParams, error) {
	params := triggerParams{}
	if r.Method == http.MethodPost {
		ct := r.Header.Get("Content-Type")
		if r.Body != nil && (ct == "" || strings.HasPrefix(ct, "application/json")) {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("invalid JSON body: %w", err)
			}
			for k, v := range body {
				params[k] = v
			}
		}
	}
	for k, vals := range r.URL.Query() {
		if _, exists := params[k]; !exists && len(vals) > 0 {
			params[k] = vals[0]
		}
	}
	return params, nil
}

func (p triggerParams) str(key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func (p triggerParams) intVal(key string, fallback int) (int, error) {
	switch v := p[key].(type) {
	case nil:
		return fallback, nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("parameter %q must be an integer", key)
		}
		return n, nil
	}
	return 0, fmt.Errorf("parameter %q must be an integer", key)
}

func (p triggerParams) floatVal(key string, fallback float64) (float64, error) {
	switch v := p[key].(type) {
	case nil:
		return fallback, nil
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("parameter %q must be a number", key)
		}
		return f, nil
	}
	return 0, fmt.Errorf("parameter %q must be a number", key)
}

func (p triggerParams) boolVal(key string, fallback bool) (bool, error) {
	switch v := p[key].(type) {
	case nil:
		return fallback, nil
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("parameter %q must be a boolean", key)
		}
		return b, nil
	}
	return false, fmt.Errorf("parameter %q must be a boolean", key)
}

// tenantID returns nil when absent, which fans the job out to all active
// tenants.
func (p triggerParams) tenantID() (*int64, error) {
	raw := p.str("tenantId")
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("parameter %q must be a positive integer", "tenantId")
	}
	return &id, nil
}

func (p triggerParams) secret() string {
	return p.str("secret")
}
