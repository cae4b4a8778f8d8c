// Package logentry defines the structured log-entry model and the strict
// JSON parser that produces it. An Entry is only ever created from a payload
// that decoded cleanly and carried the required structural fields; a parse
// failure never yields a partial Entry.
package logentry

// Resource describes the monitored resource that emitted the log entry.
type Resource struct {
	Type   string            `json:"type,omitempty"`
	Labels map[string]string `json:"labels,omitempty"`
}

// HTTPRequest carries the HTTP request metadata attached to request logs.
type HTTPRequest struct {
	RequestMethod string `json:"requestMethod,omitempty"`
	RequestURL    string `json:"requestUrl,omitempty"`
	Status        int    `json:"status,omitempty"`
	ResponseSize  int64  `json:"responseSize,string,omitempty"`
	UserAgent     string `json:"userAgent,omitempty"`
	RemoteIP      string `json:"remoteIp,omitempty"`
	Referer       string `json:"referer,omitempty"`
	Latency       string `json:"latency,omitempty"`
}

// SourceLocation identifies the code location that emitted the log entry.
type SourceLocation struct {
	File     string `json:"file,omitempty"`
	Line     int64  `json:"line,string,omitempty"`
	Function string `json:"function,omitempty"`
}

// Entry is a parsed structured log record. Timestamps are kept in their wire
// form (RFC 3339 text); the parser validates them but does not reformat.
//
// Unknown top-level fields in the payload are ignored: producers attach
// extra metadata over time and the pipeline only acts on the surface below.
type Entry struct {
	InsertID         string            `json:"insertId"`
	Timestamp        string            `json:"timestamp"`
	ReceiveTimestamp string            `json:"receiveTimestamp,omitempty"`
	Severity         string            `json:"severity,omitempty"`
	LogName          string            `json:"logName,omitempty"`
	Resource         Resource          `json:"resource,omitempty"`
	Labels           map[string]string `json:"labels,omitempty"`
	TextPayload      string            `json:"textPayload,omitempty"`
	JSONPayload      map[string]any    `json:"jsonPayload,omitempty"`
	HTTPRequest      *HTTPRequest      `json:"httpRequest,omitempty"`
	SourceLocation   *SourceLocation   `json:"sourceLocation,omitempty"`
	Trace            string            `json:"trace,omitempty"`
	SpanID           string            `json:"spanId,omitempty"`
}

// Clone returns a deep copy of the entry. Downstream stages operate on
// copies so that transformation stays a pure function of its input.
func (e Entry) Clone() Entry {
	out := e
	out.Resource.Labels = cloneStringMap(e.Resource.Labels)
	out.Labels = cloneStringMap(e.Labels)
	out.JSONPayload = cloneAnyMap(e.JSONPayload)
	if e.HTTPRequest != nil {
		req := *e.HTTPRequest
		out.HTTPRequest = &req
	}
	if e.SourceLocation != nil {
		loc := *e.SourceLocation
		out.SourceLocation = &loc
	}
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch vv := v.(type) {
		case map[string]any:
			out[k] = cloneAnyMap(vv)
		case []any:
			out[k] = cloneAnySlice(vv)
		default:
			out[k] = v
		}
	}
	return out
}

func cloneAnySlice(s []any) []any {
	out := make([]any, len(s))
	for i, v := range s {
		switch vv := v.(type) {
		case map[string]any:
			out[i] = cloneAnyMap(vv)
		case []any:
			out[i] = cloneAnySlice(vv)
		default:
			out[i] = v
		}
	}
	return out
}
