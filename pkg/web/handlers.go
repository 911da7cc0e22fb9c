// Package web provides HTTP handlers and REST API endpoints for agent
// management, trigger dispatch and execution records.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/agentflow/agentflow/pkg/models"
	"github.com/agentflow/agentflow/pkg/persistence"
	"github.com/agentflow/agentflow/pkg/triggers"
	"github.com/agentflow/agentflow/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type APIHandlers struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	triggers    *triggers.Registry
	workflows   *workflow.Validator
	runtime     *workflow.Runtime
	validator   *validator.Validate
}

func NewAPIHandlers(
	logger *slog.Logger,
	persistence persistence.Persistence,
	triggerRegistry *triggers.Registry,
	workflowValidator *workflow.Validator,
	runtime *workflow.Runtime,
) *APIHandlers {
	return &APIHandlers{
		logger:      logger.With("module", "api"),
		persistence: persistence,
		triggers:    triggerRegistry,
		workflows:   workflowValidator,
		runtime:     runtime,
		validator:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *APIHandlers) GetAgents(c fiber.Ctx) error {
	agents, err := h.persistence.Agents(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	if agents == nil {
		agents = []*models.Agent{}
	}

	return c.JSON(agents)
}

func (h *APIHandlers) GetAgent(c fiber.Ctx) error {
	agent, err := h.persistence.AgentByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleStorageError(c, err)
	}

	return c.JSON(agent)
}

func (h *APIHandlers) CreateAgent(c fiber.Ctx) error {
	var req CreateAgentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if result := h.workflows.Validate(req.Workflow); !result.Valid {
		return c.Status(fiber.StatusBadRequest).JSON(result)
	}

	if err := h.triggers.ValidateConfig(req.Trigger); err != nil {
		return handleStorageError(c, err)
	}

	produced, err := h.triggers.SetupTrigger(c.Context(), req.Trigger)
	if err != nil {
		return internalError(c, err)
	}

	for key, value := range produced {
		if req.Trigger.Config == nil {
			req.Trigger.Config = make(map[string]any)
		}

		req.Trigger.Config[key] = value
	}

	now := time.Now().UTC()
	agent := &models.Agent{
		ID:        "agent-" + uuid.NewString(),
		AccountID: req.AccountID,
		Name:      req.Name,
		Workflow:  req.Workflow,
		Trigger:   req.Trigger,
		Variables: req.Variables,
		Config:    req.Config,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.persistence.SaveAgent(c.Context(), agent); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(agent)
}

func (h *APIHandlers) UpdateAgent(c fiber.Ctx) error {
	agent, err := h.persistence.AgentByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleStorageError(c, err)
	}

	var req UpdateAgentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if req.Name != nil {
		agent.Name = *req.Name
	}

	if req.Workflow != nil {
		if result := h.workflows.Validate(req.Workflow); !result.Valid {
			return c.Status(fiber.StatusBadRequest).JSON(result)
		}

		agent.Workflow = req.Workflow
	}

	if req.Trigger != nil {
		if err := h.triggers.ValidateConfig(req.Trigger); err != nil {
			return handleStorageError(c, err)
		}

		agent.Trigger = req.Trigger
	}

	if req.Variables != nil {
		agent.Variables = req.Variables
	}

	if req.Config != nil {
		agent.Config = *req.Config
	}

	agent.UpdatedAt = time.Now().UTC()

	if err := h.persistence.SaveAgent(c.Context(), agent); err != nil {
		return internalError(c, err)
	}

	return c.JSON(agent)
}

func (h *APIHandlers) DeleteAgent(c fiber.Ctx) error {
	agent, err := h.persistence.AgentByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleStorageError(c, err)
	}

	if err := h.triggers.TeardownTrigger(c.Context(), agent.Trigger); err != nil {
		h.logger.Warn("Trigger teardown failed", "agent_id", agent.ID, "error", err)
	}

	if err := h.persistence.DeleteAgent(c.Context(), agent.ID); err != nil {
		return handleStorageError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// TriggerAgent dispatches a raw event through the agent's trigger handler
// and, when the filters match, executes the workflow synchronously. A
// filtered-out event is a successful request that runs nothing.
func (h *APIHandlers) TriggerAgent(c fiber.Ctx) error {
	agent, err := h.persistence.AgentByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleStorageError(c, err)
	}

	var req TriggerAgentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	payload, err := h.triggers.ProcessTrigger(c.Context(), agent.Trigger, req.Data)
	if err != nil {
		return badRequest(c, err.Error())
	}

	if payload == nil {
		return c.JSON(TriggerAgentResponse{Matched: false})
	}

	execution := h.runtime.Execute(c.Context(), agent, payload)

	if err := h.persistence.SaveExecution(c.Context(), execution); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(TriggerAgentResponse{
		Matched:   true,
		Execution: execution,
	})
}

func (h *APIHandlers) ValidateWorkflow(c fiber.Ctx) error {
	var req ValidateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(h.workflows.Validate(req.Workflow))
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	execution, err := h.persistence.ExecutionByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleStorageError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) GetAgentExecutions(c fiber.Ctx) error {
	agentID := c.Params("id")

	if _, err := h.persistence.AgentByID(c.Context(), agentID); err != nil {
		return handleStorageError(c, err)
	}

	executions, err := h.persistence.ExecutionsByAgent(c.Context(), agentID)
	if err != nil {
		return internalError(c, err)
	}

	if executions == nil {
		executions = []*models.AgentExecution{}
	}

	return c.JSON(executions)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "AgentFlow API is healthy"
	httpStatus := http.StatusOK
	storageDetail := "ok"

	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		status = "unhealthy"
		message = "AgentFlow API is unhealthy"
		httpStatus = http.StatusInternalServerError
		storageDetail = err.Error()
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"persistence":   storageDetail,
			"trigger_types": len(h.triggers.TriggerTypes()),
		},
	})
}
