// This file contains the actual validator implementation for incoming http requests.
//
// You can implement custom validators for each field in this file and reference them in the request structs.

package web

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jr-dreamview/ingest-bulk/internal/scenegraph"
)

var validate *validator.Validate

// Initialize the custom validator
func init() {
	validate = validator.New()
	validate.RegisterValidation("manifestNode", validateManifestNode)
}

// ValidateRequest validates a request using a Fiber context and a request struct.
// It parses the request differently based on HTTP method.
func ValidateRequest(c *fiber.Ctx, req interface{}) error {
	switch c.Method() {
	case fiber.MethodGet:
		// For GET requests, we only need to parse query and path parameters
		if err := c.QueryParser(req); err != nil {
			return err
		}
		if err := c.ParamsParser(req); err != nil {
			return err
		}
	case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch:
		// For requests with potential body content
		if err := c.BodyParser(req); err != nil {
			return err
		}
		// Also parse query parameters for these methods if needed
		if err := c.QueryParser(req); err != nil {
			return err
		}
	default:
		// Unsupported HTTP method
	}

	return validate.Struct(req)
}

// validateManifestNode is a custom validator for the nodes of a SceneManifest. A node must be named, and must either
// be a group or carry geometry, all the way down.
func validateManifestNode(fl validator.FieldLevel) bool {
	switch node := fl.Field().Interface().(type) {
	case *scenegraph.Object:
		return node != nil && scenegraph.Validate(node) == nil
	case scenegraph.Object:
		return scenegraph.Validate(&node) == nil
	default:
		return false
	}
}
