package router

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// OpenAPIGenerator generates OpenAPI specs from route info
type OpenAPIGenerator struct {
	Title           string
	Description     string
	Version         string
	Routes          []RouteInfo
	Servers         []Server
	Tags            []Tag
	schemaRegistry  *schemaRegistry
	customResponses map[string]map[string]any
	routeResponses  map[string]map[string]string // Maps routeID -> statusCode -> responseName
}

// NewOpenAPIGenerator creates a new OpenAPI generator
func NewOpenAPIGenerator(title, description, version string, routes []RouteInfo) *OpenAPIGenerator {
	return &OpenAPIGenerator{
		Title:           title,
		Description:     description,
		Version:         version,
		Routes:          routes,
		schemaRegistry:  newSchemaRegistry(),
		customResponses: make(map[string]map[string]any),
		routeResponses:  make(map[string]map[string]string),
	}
}

// RegisterResponse adds a custom response pattern that can be referenced in routes
func (g *OpenAPIGenerator) RegisterResponse(name string, response map[string]any) {
	g.customResponses[name] = response
}

// RegisterRouteResponse associates a named response with a specific route and status code
func (g *OpenAPIGenerator) RegisterRouteResponse(routePath, method, statusCode, responseName string) {
	routeID := routeKey(method, routePath)
	if _, exists := g.routeResponses[routeID]; !exists {
		g.routeResponses[routeID] = make(map[string]string)
	}
	g.routeResponses[routeID][statusCode] = responseName
}

// OpenAPI returns the OpenAPI document describing every registered route
func (dr *DocRouter) OpenAPI() map[string]any {
	g := NewOpenAPIGenerator(dr.title, dr.description, dr.version, dr.routes)
	g.Servers = dr.servers
	g.Tags = dr.tags
	for name, response := range dr.customResponses {
		g.RegisterResponse(name, response)
	}
	for routeID, byStatus := range dr.routeResponses {
		g.routeResponses[routeID] = byStatus
	}
	return g.Generate()
}

// OpenAPIJSON returns the OpenAPI document encoded as indented JSON
func (dr *DocRouter) OpenAPIJSON() ([]byte, error) {
	return json.MarshalIndent(dr.OpenAPI(), "", "  ")
}

// Generate creates and returns an OpenAPI specification
func (g *OpenAPIGenerator) Generate() map[string]any {
	spec := map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":       g.Title,
			"description": g.Description,
			"version":     g.Version,
		},
		"paths": g.generatePaths(),
	}

	if len(g.Servers) > 0 {
		servers := make([]any, 0, len(g.Servers))
		for _, s := range g.Servers {
			servers = append(servers, map[string]any{"url": s.URL, "description": s.Description})
		}
		spec["servers"] = servers
	}

	if len(g.Tags) > 0 {
		tags := make([]any, 0, len(g.Tags))
		for _, t := range g.Tags {
			tags = append(tags, map[string]any{"name": t.Name, "description": t.Description})
		}
		spec["tags"] = tags
	}

	// components last: generating paths is what fills the schema registry
	spec["components"] = g.generateComponents()

	return spec
}

// extractPathParams gets path parameters from a URL path
func extractPathParams(path string) []string {
	var params []string

	for _, part := range strings.Split(path, "/") {
		if len(part) > 2 && part[0] == '{' && part[len(part)-1] == '}' {
			name := strings.TrimSuffix(part[1:len(part)-1], "...")
			if name == "$" {
				continue
			}
			params = append(params, name)
		}
	}

	return params
}

// generatePathParameters creates parameter objects for path parameters
func generatePathParameters(params, intParams []string) []any {
	var parameters []any

	for _, param := range params {
		schema := map[string]any{"type": "string"}
		if slices.Contains(intParams, param) {
			schema = map[string]any{"type": "integer", "format": "int64", "minimum": 1}
		}

		parameters = append(parameters, map[string]any{
			"name":        param,
			"in":          "path",
			"required":    true,
			"schema":      schema,
			"description": fmt.Sprintf("%s parameter", param),
		})
	}

	return parameters
}

func generateQueryParameters(params []QueryParam) []any {
	var parameters []any

	for _, param := range params {
		schema := map[string]any{"type": "string"}
		if len(param.Enum) > 0 {
			schema["enum"] = param.Enum
		}

		parameters = append(parameters, map[string]any{
			"name":        param.Name,
			"in":          "query",
			"required":    false,
			"schema":      schema,
			"description": param.Description,
		})
	}

	return parameters
}

func operationID(method, path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return method + "_root"
	}
	r := strings.NewReplacer("/", "_", "{", "", "}", "")
	return method + "_" + r.Replace(trimmed)
}

// generatePaths creates the paths section of the OpenAPI spec
func (g *OpenAPIGenerator) generatePaths() map[string]any {
	paths := map[string]any{}

	for _, route := range g.Routes {
		if _, exists := paths[route.Path]; !exists {
			paths[route.Path] = map[string]any{}
		}

		pathItem := paths[route.Path].(map[string]any)
		method := strings.ToLower(route.Method)

		operation := map[string]any{
			"summary":     route.Name,
			"description": route.Description,
			"operationId": operationID(method, route.Path),
			"responses":   g.generateResponses(route),
		}

		if len(route.Tags) > 0 {
			operation["tags"] = route.Tags
		}

		parameters := generatePathParameters(extractPathParams(route.Path), route.IntParams)
		parameters = append(parameters, generateQueryParameters(route.QueryParams)...)
		if len(parameters) > 0 {
			operation["parameters"] = parameters
		}

		// add request body for POST, PUT, PATCH
		if route.RequestType != nil && (method == "post" || method == "put" || method == "patch") {
			operation["requestBody"] = g.generateRequestBody(route)
		}

		pathItem[method] = operation
	}

	return paths
}

// generateResponses creates response documentation
func (g *OpenAPIGenerator) generateResponses(route RouteInfo) map[string]any {
	responses := map[string]any{}

	for statusCode, routeResponse := range route.Responses {
		responseContent := map[string]any{}

		if routeResponse.Schema != nil {
			responseContent["schema"] = g.schemaRegistry.schemaRef(routeResponse.Schema)
		}

		if len(routeResponse.Examples) > 0 {
			examples := map[string]any{}
			for i, example := range routeResponse.Examples {
				examples[fmt.Sprintf("example%d", i+1)] = map[string]any{
					"value": example.Value,
				}
			}
			responseContent["examples"] = examples
		}

		response := map[string]any{
			"description": routeResponse.Description,
		}

		if len(responseContent) > 0 {
			response["content"] = map[string]any{
				"application/json": responseContent,
			}
		}

		responses[statusCode] = response
	}

	success := route.SuccessStatus
	if success == "" {
		success = "200"
	}

	// add success response if it wasn't overridden by a custom response
	if _, exists := responses[success]; !exists {
		response := map[string]any{
			"description": "successful operation",
		}
		if route.ResponseType != nil {
			response["content"] = map[string]any{
				"application/json": map[string]any{
					"schema": g.schemaRegistry.schemaRef(route.ResponseType),
				},
			}
		}
		responses[success] = response
	}

	// reference shared responses registered for this route
	if routeResps, exists := g.routeResponses[routeKey(route.Method, route.Path)]; exists {
		for statusCode, responseName := range routeResps {
			if _, exists := responses[statusCode]; exists {
				continue
			}
			responses[statusCode] = componentRef("responses", responseName)
		}
	}

	return responses
}

// generateRequestBody creates request body documentation
func (g *OpenAPIGenerator) generateRequestBody(route RouteInfo) map[string]any {
	return map[string]any{
		"description": fmt.Sprintf("request body for %s", route.Name),
		"required":    true,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": g.schemaRegistry.schemaRef(route.RequestType),
			},
		},
	}
}

// generateComponents creates reusable components
func (g *OpenAPIGenerator) generateComponents() map[string]any {
	components := map[string]any{
		"schemas": g.schemaRegistry.getSchemas(),
	}

	if len(g.customResponses) > 0 {
		components["responses"] = g.customResponses
	}

	return components
}
