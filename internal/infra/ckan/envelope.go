package ckan

import (
	"encoding/json"
	"errors"
)

// envelope is the shape shared by every CKAN action response.
type envelope struct {
	Success *bool           `json:"success"`
	Error   json.RawMessage `json:"error"`
	Result  json.RawMessage `json:"result"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"__type"`
}

func checkEnvelope(target string, body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &UpstreamError{Kind: KindDecode, URL: target, Body: truncateBody(body), Err: err}
	}
	if env.Success != nil && !*env.Success {
		return &UpstreamError{Kind: KindAPI, URL: target, Message: apiErrorMessage(env.Error)}
	}
	return nil
}

func apiErrorMessage(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "unknown error"
	}
	var parsed apiError
	if err := json.Unmarshal(raw, &parsed); err == nil {
		switch {
		case parsed.Message != "" && parsed.Type != "":
			return parsed.Type + ": " + parsed.Message
		case parsed.Message != "":
			return parsed.Message
		case parsed.Type != "":
			return parsed.Type
		}
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil && text != "" {
		return text
	}
	return truncateBody(raw)
}

// Result decodes the result member of a CKAN response into out.
func Result(body json.RawMessage, out any) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &UpstreamError{Kind: KindDecode, Err: err}
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return &UpstreamError{Kind: KindDecode, Err: errors.New("response has no result")}
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return &UpstreamError{Kind: KindDecode, Err: err}
	}
	return nil
}
