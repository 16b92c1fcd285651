package serverutils

import "github.com/gofiber/fiber/v2"

// CORSHeaders stamps the allow headers on every response, including requests
// without an Origin header that the cors middleware skips.
func CORSHeaders(origins, methods, headers string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		ctx.Set(fiber.HeaderAccessControlAllowOrigin, origins)
		ctx.Set(fiber.HeaderAccessControlAllowMethods, methods)
		ctx.Set(fiber.HeaderAccessControlAllowHeaders, headers)
		return ctx.Next()
	}
}
