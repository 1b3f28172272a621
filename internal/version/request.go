package version

import "strings"

// Request is a parsed user request for a package: a name plus the version
// constraint that accompanied it. Requests are never persisted.
type Request struct {
	Name string
	Spec Spec
}

// ParseRequest parses user input of the form "name", "name@version",
// "name@~prefix", or "name@*". A request without an @version suffix
// carries an implicit Any spec.
func ParseRequest(input string) Request {
	name, spec, found := strings.Cut(input, "@")
	if !found {
		return Request{Name: input, Spec: Any()}
	}
	return Request{Name: name, Spec: ParseSpec(spec)}
}

// ParseRequests parses a slice of request strings.
func ParseRequests(inputs []string) []Request {
	requests := make([]Request, len(inputs))
	for i, input := range inputs {
		requests[i] = ParseRequest(input)
	}
	return requests
}

// String renders the request in the syntax it was parsed from.
func (r Request) String() string {
	if r.Spec.IsAny() {
		return r.Name + "@*"
	}
	return r.Name + "@" + r.Spec.String()
}
