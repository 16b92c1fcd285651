package controller

import (
	"clash-rulesync/internal/dto"
	"clash-rulesync/internal/entity"
	"clash-rulesync/internal/pkg/serverutils"
	"clash-rulesync/internal/service"

	"github.com/gofiber/fiber/v2"
)

const yamlContentType = "text/yaml; charset=utf-8"

// Paths served without authentication. The proxy daemon downloads them.
var PublicPaths = []string{"/direct.yaml", "/proxy.yaml"}

type IRuleController interface {
	RegisterRoutes(r fiber.Router)
	ServeDirect(ctx *fiber.Ctx) error
	ServeProxy(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Add(ctx *fiber.Ctx) error
	SaveAll(ctx *fiber.Ctx) error
}

type ruleController struct {
	service service.IEdgeRuleService
}

func NewRuleController(service service.IEdgeRuleService) IRuleController {
	return &ruleController{service: service}
}

func (c *ruleController) RegisterRoutes(r fiber.Router) {
	r.Get("/direct.yaml", c.ServeDirect)
	r.Get("/proxy.yaml", c.ServeProxy)

	h := r.Group("/api/rules")
	h.Get("", c.GetAll)
	h.Post("", c.Add)
	h.Put("", c.SaveAll)
}

func (c *ruleController) ServeDirect(ctx *fiber.Ctx) error {
	return c.serveDocument(ctx, entity.ClassificationDirect)
}

func (c *ruleController) ServeProxy(ctx *fiber.Ctx) error {
	return c.serveDocument(ctx, entity.ClassificationProxy)
}

func (c *ruleController) serveDocument(ctx *fiber.Ctx, classification entity.Classification) error {
	text, err := c.service.GetDocument(ctx.UserContext(), classification)
	if err != nil {
		return err
	}
	ctx.Set(fiber.HeaderContentType, yamlContentType)
	return ctx.SendString(text)
}

func (c *ruleController) GetAll(ctx *fiber.Ctx) error {
	res, err := c.service.GetAll(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *ruleController) Add(ctx *fiber.Ctx) error {
	var req dto.EdgeAddRuleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.AddRule(ctx.UserContext(), &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse())
}

func (c *ruleController) SaveAll(ctx *fiber.Ctx) error {
	var req dto.EdgeSaveRulesRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.SaveAll(ctx.UserContext(), &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse())
}
