// package router provides a router wrapper that captures documentation data
package router

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// RouteResponse represents a documented response for a specific HTTP status code
type RouteResponse struct {
	StatusCode  string    // HTTP status code (e.g., "200", "400")
	Description string    // Description of the response
	Schema      any       // Response schema/type (optional)
	Examples    []Example // Example responses (optional)
}

// Example represents an example response for documentation
type Example struct {
	ContentType string // Content type of the example (e.g., "application/json")
	Value       string // Example value as string
}

// QueryParam documents an optional query string parameter
type QueryParam struct {
	Name        string
	Description string
	Enum        []string
}

// RouteInfo stores documentation for a route
type RouteInfo struct {
	Method        string                   // HTTP method (GET, POST, etc.)
	Path          string                   // URL path
	Name          string                   // Friendly name for the endpoint
	Description   string                   // Description of what the endpoint does
	Handler       http.Handler             // The actual handler function
	RequestType   any                      // Example request type (for schema generation)
	ResponseType  any                      // Example success response type (for schema generation)
	SuccessStatus string                   // Status code of the success response
	Responses     map[string]RouteResponse // Map of HTTP status codes to responses
	Tags          []string                 // Tags for grouping endpoints
	IntParams     []string                 // Path parameters decoded as positive integers
	QueryParams   []QueryParam             // Documented query parameters
}

// Server documents a base URL the API is served from
type Server struct {
	URL         string
	Description string
}

// Tag documents a group of operations
type Tag struct {
	Name        string
	Description string
}

// RouteConfig is a builder for route configuration
type RouteConfig struct {
	router        *DocRouter
	method        string
	path          string
	handler       http.HandlerFunc
	name          string
	description   string
	requestType   any
	responseType  any
	successStatus string
	responses     map[string]RouteResponse
	tags          []string
	intParams     []string
	queryParams   []QueryParam
}

// DocRouter wraps http.ServeMux to add documentation capabilities.
// Unknown paths get a JSON 404; known paths with an unregistered method get
// a JSON 405 with an Allow header.
type DocRouter struct {
	title       string
	description string
	version     string

	mux     *http.ServeMux
	paths   *http.ServeMux
	allowed map[string][]string
	handler http.Handler

	middlewares     []func(http.Handler) http.Handler
	routes          []RouteInfo
	servers         []Server
	tags            []Tag
	customResponses map[string]map[string]any
	routeResponses  map[string]map[string]string
}

// NewDocRouter creates a new documented router
func NewDocRouter(title, description, version string) *DocRouter {
	dr := &DocRouter{
		title:           title,
		description:     description,
		version:         version,
		mux:             http.NewServeMux(),
		paths:           http.NewServeMux(),
		allowed:         make(map[string][]string),
		routes:          []RouteInfo{},
		customResponses: make(map[string]map[string]any),
		routeResponses:  make(map[string]map[string]string),
	}
	dr.mux.HandleFunc("/", dr.fallback)
	dr.handler = dr.mux
	return dr
}

// WithServer adds a server entry to the generated document
func (dr *DocRouter) WithServer(url, description string) *DocRouter {
	dr.servers = append(dr.servers, Server{URL: url, Description: description})
	return dr
}

// WithTag adds a tag description to the generated document
func (dr *DocRouter) WithTag(name, description string) *DocRouter {
	dr.tags = append(dr.tags, Tag{Name: name, Description: description})
	return dr
}

// RegisterResponse adds a reusable response under components/responses
func (dr *DocRouter) RegisterResponse(name string, response map[string]any) {
	dr.customResponses[name] = response
}

// RegisterRouteResponse references a registered response from a route
func (dr *DocRouter) RegisterRouteResponse(path, method, statusCode, responseName string) {
	routeID := routeKey(method, path)
	if _, exists := dr.routeResponses[routeID]; !exists {
		dr.routeResponses[routeID] = make(map[string]string)
	}
	dr.routeResponses[routeID][statusCode] = responseName
}

// Route starts a route configuration chain
func (dr *DocRouter) Route(method, path string, handler http.HandlerFunc) *RouteConfig {
	return &RouteConfig{
		router:        dr,
		method:        method,
		path:          path,
		handler:       handler,
		successStatus: "200",
		responses:     make(map[string]RouteResponse),
	}
}

// WithName adds a name to the route
func (rc *RouteConfig) WithName(name string) *RouteConfig {
	rc.name = name
	return rc
}

// WithDescription adds a description to the route
func (rc *RouteConfig) WithDescription(description string) *RouteConfig {
	rc.description = description
	return rc
}

// WithRequest adds a request type to the route
func (rc *RouteConfig) WithRequest(requestType any) *RouteConfig {
	rc.requestType = requestType
	return rc
}

// WithResponse adds a success response type to the route
func (rc *RouteConfig) WithResponse(responseType any) *RouteConfig {
	rc.responseType = responseType
	return rc
}

// WithStatus sets the status code documented for the success response
func (rc *RouteConfig) WithStatus(code int) *RouteConfig {
	rc.successStatus = strconv.Itoa(code)
	return rc
}

// WithErrorResponse adds an error response to the route
func (rc *RouteConfig) WithErrorResponse(statusCode, description string, schema any, examples ...Example) *RouteConfig {
	rc.responses[statusCode] = RouteResponse{
		StatusCode:  statusCode,
		Description: description,
		Schema:      schema,
		Examples:    examples,
	}
	return rc
}

// WithTags adds tags to the route
func (rc *RouteConfig) WithTags(tags ...string) *RouteConfig {
	rc.tags = tags
	return rc
}

// WithIntParam declares that the {name} path segment must be a positive
// integer. Requests with any other value are answered with 404 before the
// handler runs; the handler reads the decoded value with IntParam.
func (rc *RouteConfig) WithIntParam(name string) *RouteConfig {
	rc.intParams = append(rc.intParams, name)
	return rc
}

// WithQueryParam documents an optional query parameter
func (rc *RouteConfig) WithQueryParam(name, description string, enum ...string) *RouteConfig {
	rc.queryParams = append(rc.queryParams, QueryParam{Name: name, Description: description, Enum: enum})
	return rc
}

// Register finalizes the route configuration and registers it with the router
func (rc *RouteConfig) Register() {
	dr := rc.router

	var handler http.Handler = rc.handler
	if len(rc.intParams) > 0 {
		handler = decodeIntParams(rc.intParams, handler, http.HandlerFunc(notFound))
	}

	// "/" alone would match every path in ServeMux
	muxPath := rc.path
	if muxPath == "/" {
		muxPath = "/{$}"
	}

	dr.mux.Handle(rc.method+" "+muxPath, handler)

	if _, seen := dr.allowed[muxPath]; !seen {
		dr.paths.Handle(muxPath, dr.methodNotAllowed(muxPath))
	}
	dr.allowed[muxPath] = append(dr.allowed[muxPath], rc.method)

	dr.routes = append(dr.routes, RouteInfo{
		Method:        rc.method,
		Path:          rc.path,
		Name:          rc.name,
		Description:   rc.description,
		Handler:       handler,
		RequestType:   rc.requestType,
		ResponseType:  rc.responseType,
		SuccessStatus: rc.successStatus,
		Responses:     rc.responses,
		Tags:          rc.tags,
		IntParams:     rc.intParams,
		QueryParams:   rc.queryParams,
	})
}

// GetRoutes returns all documented routes
func (dr *DocRouter) GetRoutes() []RouteInfo {
	return dr.routes
}

// ServeHTTP makes DocRouter implement the http.Handler interface
func (dr *DocRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	dr.handler.ServeHTTP(w, r)
}

// Use adds middleware around the whole router. The first middleware added
// is the outermost one.
func (dr *DocRouter) Use(middleware ...func(http.Handler) http.Handler) {
	dr.middlewares = append(dr.middlewares, middleware...)

	var handler http.Handler = dr.mux
	for i := len(dr.middlewares) - 1; i >= 0; i-- {
		handler = dr.middlewares[i](handler)
	}
	dr.handler = handler
}

// fallback runs when no method+path pattern matched
func (dr *DocRouter) fallback(w http.ResponseWriter, r *http.Request) {
	if h, pattern := dr.paths.Handler(r); pattern != "" {
		h.ServeHTTP(w, r)
		return
	}
	notFound(w, r)
}

func (dr *DocRouter) methodNotAllowed(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		methods := slices.Clone(dr.allowed[path])
		if slices.Contains(methods, http.MethodGet) && !slices.Contains(methods, http.MethodHead) {
			methods = append(methods, http.MethodHead)
		}
		w.Header().Set("Allow", strings.Join(methods, ", "))
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, "not found", http.StatusNotFound)
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

type paramKey string

func decodeIntParams(names []string, next, onInvalid http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		for _, name := range names {
			v, ok := parsePositiveInt(r.PathValue(name))
			if !ok {
				onInvalid.ServeHTTP(w, r)
				return
			}
			ctx = context.WithValue(ctx, paramKey(name), v)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IntParam returns the decoded value of the integer path parameter name.
// It reports false when the segment is missing or not a positive integer.
func IntParam(r *http.Request, name string) (int64, bool) {
	if v, ok := r.Context().Value(paramKey(name)).(int64); ok {
		return v, true
	}
	return parsePositiveInt(r.PathValue(name))
}

func parsePositiveInt(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func routeKey(method, path string) string {
	return strings.ToLower(method) + ":" + path
}
