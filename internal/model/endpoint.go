package model

// HTTPMethod is the method attached to an endpoint record.
type HTTPMethod string

const (
	MethodGET    HTTPMethod = "GET"
	MethodPOST   HTTPMethod = "POST"
	MethodPUT    HTTPMethod = "PUT"
	MethodDELETE HTTPMethod = "DELETE"
)

// Parameters are the likely inputs of an endpoint.
type Parameters struct {
	// Query holds "key=value" pairs in URL order.
	Query []string `json:"query"`
	// Path holds segments that look like route variables.
	Path []string `json:"path"`
}

// EndpointRecord describes one discovered API or backend URL. URL is always
// an absolute URL that re-parses cleanly.
type EndpointRecord struct {
	URL string `json:"url"`

	// MethodGuess is derived from path keywords only. It is a heuristic and
	// not an observed verb.
	MethodGuess HTTPMethod `json:"methodGuess"`

	// ObservedMethod is the verb the browser actually used, when the request
	// was captured while rendering.
	ObservedMethod string `json:"observedMethod,omitempty"`

	Parameters Parameters `json:"parameters"`
}
