package serverutils

import (
	"errors"
	"log"

	"clash-rulesync/internal/pkg/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns handler errors into the API's JSON error shape.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		if errors.Is(err, apperr.ErrRuleExists) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(apperr.ErrRuleExists.Error()))
		}

		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(ValidationMessage(validationErrs)))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			if fiberErr.Code == fiber.StatusNotFound {
				return ctx.Status(fiber.StatusNotFound).SendString("Not Found")
			}
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		log.Printf("[ERROR] %s %s: %v", ctx.Method(), ctx.Path(), err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(err.Error()))
	}
}
