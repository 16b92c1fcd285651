package serverutils

import "github.com/gofiber/fiber/v2"

func SuccessResponse() fiber.Map {
	return fiber.Map{"success": true}
}

func ErrorResponse(message string) fiber.Map {
	return fiber.Map{"error": message}
}
