package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/helmet/v2"
)

// SecureHeaders -> default security headers
func SecureHeaders() fiber.Handler {
	return helmet.New()
}

// SecureHeadersStrict -> strict mode with CSP & isolation. The API only
// serves JSON and the websocket, so everything else is locked down.
func SecureHeadersStrict() fiber.Handler {
	return helmet.New(helmet.Config{
		ContentSecurityPolicy: "default-src 'none'; " +
			"connect-src 'self' wss:; " +
			"frame-ancestors 'none';",

		CrossOriginEmbedderPolicy: "require-corp",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "same-origin",
	})
}
