package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

type cacheRule struct {
	prefix  string
	exact   bool
	control string
}

// cacheRules are matched in order; the first hit wins.
var cacheRules = []cacheRule{
	{prefix: "/v1/health", exact: true, control: "public, max-age=10"},
	{prefix: "/v1/ready", exact: true, control: "public, max-age=10"},
	{prefix: "/api/health", exact: true, control: "public, max-age=10"},
	{prefix: "/metrics", exact: true, control: "no-cache"},
	{prefix: "/graphql", exact: true, control: "private, max-age=0"},
	// scenes change with every selection
	{prefix: "/v1/sessions/", control: "no-store"},
	{prefix: "/v1/places/", control: "public, max-age=300"},
	{prefix: "/v1/checkpoints", control: "no-cache"},
	{prefix: "/api/checkpoints", control: "no-cache"},
	{prefix: "/docs", control: "public, max-age=3600"},
}

// CachingMiddleware fills in Cache-Control on GET responses whose handler
// did not set one.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if c.Method() != fiber.MethodGet {
			return err
		}
		if len(c.Response().Header.Peek(fiber.HeaderCacheControl)) > 0 {
			return err
		}
		if control := cacheControlFor(c.Path()); control != "" {
			c.Set(fiber.HeaderCacheControl, control)
		}
		return err
	}
}

func cacheControlFor(path string) string {
	for _, r := range cacheRules {
		if r.exact && path == r.prefix || !r.exact && strings.HasPrefix(path, r.prefix) {
			return r.control
		}
	}
	return ""
}
