package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/url"
)

// Marker parameters the API expects on every request: rawJSONParam asks
// for unprocessed text in JSON output, apiTypeField asks for structured
// error objects in form responses.
const (
	rawJSONParam  = "raw_json"
	apiTypeField  = "api_type"
	apiTypeValue  = "json"
	formMediaType = "application/x-www-form-urlencoded"
	jsonMediaType = "application/json"
)

// FilePart is one file in a multipart upload body.
type FilePart struct {
	FieldName string
	FileName  string
	Content   []byte
}

// requestSpec is the logical request being assembled: query parameters
// plus at most one body representation.
type requestSpec struct {
	params   url.Values
	form     map[string]string
	jsonBody any
	hasJSON  bool
	files    []FilePart
}

// RequestOption customizes one request.
type RequestOption func(*requestSpec)

// WithParam adds a single query parameter.
func WithParam(key, value string) RequestOption {
	return func(r *requestSpec) {
		r.params.Set(key, value)
	}
}

// WithParams adds query parameters.
func WithParams(params map[string]string) RequestOption {
	return func(r *requestSpec) {
		for key, value := range params {
			r.params.Set(key, value)
		}
	}
}

// WithForm sets a form-encoded body.
func WithForm(fields map[string]string) RequestOption {
	return func(r *requestSpec) {
		r.form = fields
	}
}

// WithJSON sets a JSON body serialized from v.
func WithJSON(v any) RequestOption {
	return func(r *requestSpec) {
		r.jsonBody = v
		r.hasJSON = true
	}
}

// WithFiles sets a multipart file upload body.
func WithFiles(files ...FilePart) RequestOption {
	return func(r *requestSpec) {
		r.files = files
	}
}

func newRequestSpec(opts ...RequestOption) *requestSpec {
	r := &requestSpec{params: url.Values{}}
	for _, opt := range opts {
		opt(r)
	}
	r.params.Set(rawJSONParam, "1")
	return r
}

// validate enforces the one-body invariant.
func (r *requestSpec) validate() error {
	bodies := 0
	if r.form != nil {
		bodies++
	}
	if r.hasJSON {
		bodies++
	}
	if len(r.files) > 0 {
		bodies++
	}
	if bodies > 1 {
		return NewInvocationError("at most one of form, JSON, or file body may be set")
	}
	return nil
}

// encodeBody renders the body representation to wire bytes. Form bodies
// carry the structured-error marker field and are emitted in sorted field
// order so identical logical requests produce identical bytes.
func (r *requestSpec) encodeBody() (contentType string, body []byte, err error) {
	switch {
	case r.form != nil:
		fields := url.Values{}
		for key, value := range r.form {
			fields.Set(key, value)
		}
		fields.Set(apiTypeField, apiTypeValue)
		// url.Values.Encode sorts by key.
		return formMediaType, []byte(fields.Encode()), nil
	case r.hasJSON:
		data, err := json.Marshal(r.jsonBody)
		if err != nil {
			return "", nil, NewInvocationError(fmt.Sprintf("cannot serialize JSON body: %v", err))
		}
		return jsonMediaType, data, nil
	case len(r.files) > 0:
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for _, part := range r.files {
			fw, err := w.CreateFormFile(part.FieldName, part.FileName)
			if err != nil {
				return "", nil, NewInvocationError(fmt.Sprintf("cannot build multipart body: %v", err))
			}
			if _, err := fw.Write(part.Content); err != nil {
				return "", nil, NewInvocationError(fmt.Sprintf("cannot build multipart body: %v", err))
			}
		}
		if err := w.Close(); err != nil {
			return "", nil, NewInvocationError(fmt.Sprintf("cannot build multipart body: %v", err))
		}
		return w.FormDataContentType(), buf.Bytes(), nil
	default:
		return "", nil, nil
	}
}
