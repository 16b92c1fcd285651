package serverutils

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// BearerMiddleware requires "Authorization: Bearer <secret>" on every request
// except preflights and the given public paths. It runs before routing, so an
// anonymous caller gets 401 even for paths that do not exist.
func BearerMiddleware(secret string, publicPaths ...string) fiber.Handler {
	public := make(map[string]bool, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = true
	}
	expected := []byte(secret)

	return func(ctx *fiber.Ctx) error {
		if ctx.Method() == fiber.MethodOptions || public[ctx.Path()] {
			return ctx.Next()
		}

		authHeader := ctx.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || secret == "" || subtle.ConstantTimeCompare([]byte(token), expected) != 1 {
			return ctx.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}
		return ctx.Next()
	}
}
