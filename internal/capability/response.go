// ABOUTME: BlackboardResponse, the uniform result type returned by handlers
// ABOUTME: and the dispatcher. Business failures are values, not errors.

package capability

// Response is the outcome of a dispatch or a single handler call.
// OK=false carries the failure reason under Data["error"].
type Response struct {
	OK   bool           `json:"ok"`
	Data map[string]any `json:"data"`
}

// OKData builds a successful response.
func OKData(data map[string]any) *Response {
	if data == nil {
		data = map[string]any{}
	}
	return &Response{OK: true, Data: data}
}

// Fail builds a failed response with the given error message and any
// additional key/value pairs.
func Fail(errMsg string, extra map[string]any) *Response {
	data := map[string]any{"error": errMsg}
	for k, v := range extra {
		data[k] = v
	}
	return &Response{OK: false, Data: data}
}

// ErrorMessage extracts the error text from a failed response. Returns
// "Unknown error" when the field is absent or not a string.
func (r *Response) ErrorMessage() string {
	if r == nil || r.Data == nil {
		return "Unknown error"
	}
	msg, ok := r.Data["error"].(string)
	if !ok || msg == "" {
		return "Unknown error"
	}
	return msg
}
