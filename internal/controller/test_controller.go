package controller

import (
	"skill_assess_backend/internal/service"
	"skill_assess_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TestController struct {
	Service *service.TestService
}

func NewTestController(svc *service.TestService) *TestController {
	return &TestController{Service: svc}
}

// @Summary Generate a test
// @Description Generates questions with the LLM, falling back to the built-in bank when it is slow or unusable
// @Tags tests
// @Accept json
// @Produce json
// @Param body body service.GenerateTestRequest true "Test parameters"
// @Success 201 {object} util.Response{data=model.Test}
// @Failure 400 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /api/tests/generate [post]
func (c *TestController) GenerateTest(ctx *gin.Context) {
	var req service.GenerateTestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	test, err := c.Service.GenerateTest(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Created(ctx, test)
}

// @Summary Grade a test
// @Description Multiple-choice answers are matched exactly, code and text answers are scored by the LLM
// @Tags tests
// @Accept json
// @Produce json
// @Param body body service.GradeTestRequest true "Answers"
// @Success 200 {object} util.Response{data=model.GradeResult}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/tests/grade [post]
func (c *TestController) GradeTest(ctx *gin.Context) {
	var req service.GradeTestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.GradeTest(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary Get a test
// @Tags tests
// @Produce json
// @Param id path string true "Test ID"
// @Success 200 {object} util.Response{data=model.Test}
// @Failure 404 {object} util.Response
// @Router /api/tests/{id} [get]
func (c *TestController) GetTest(ctx *gin.Context) {
	test, err := c.Service.GetTest(ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, test)
}

// @Summary Generate a sample test
// @Description Beginner test on the default topic: 5 mcq, 3 code or 3 text questions
// @Tags tests
// @Produce json
// @Param type query string false "Question type" Enums(mcq, code, text) default(mcq)
// @Success 200 {object} util.Response{data=model.Test}
// @Failure 400 {object} util.Response
// @Router /api/tests/sample [get]
func (c *TestController) SampleTest(ctx *gin.Context) {
	test, err := c.Service.SampleTest(ctx.Request.Context(), ctx.DefaultQuery("type", "mcq"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, test)
}
