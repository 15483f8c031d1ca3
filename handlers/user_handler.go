package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/edubot-service/internal/domain"
	"github.com/onurcolak/edubot-service/pkg/response"
	"github.com/onurcolak/edubot-service/pkg/validator"
)

type userQueries interface {
	ListUsers(ctx context.Context, state *domain.ConversationState, page, pageSize int) ([]domain.User, int64, error)
	GetUser(ctx context.Context, phoneNumber string) (*domain.User, []domain.HomeworkSubmission, error)
	GetUserStats(ctx context.Context) ([]domain.StateCount, error)
}

type UserHandler struct {
	service userQueries
}

func NewUserHandler(service userQueries) *UserHandler {
	return &UserHandler{service: service}
}

type GetUserRequest struct {
	Phone string `param:"phone" validate:"required,wa_id"`
}

type UserDetails struct {
	User     *domain.User                `json:"user"`
	Homework []domain.HomeworkSubmission `json:"homework"`
}

// ListUsers godoc
// @Summary List users
// @Description Retrieves a paginated list of users and leads, most recently active first
// @Tags users
// @Accept json
// @Produce json
// @Param x-api-key header string true "Admin API key"
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 100)"
// @Param state query string false "Filter by conversation state (e.g. REGISTERED, REGISTERING_NAME)"
// @Success 200 {object} response.PaginatedResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	page, pageSize, err := parsePaginationParams(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	var state *domain.ConversationState
	if stateStr := c.QueryParam("state"); stateStr != "" {
		parsed := domain.ConversationState(stateStr)
		if !parsed.Valid() {
			return response.BadRequest(c, fmt.Errorf("unknown state %q", stateStr))
		}
		state = &parsed
	}

	users, totalCount, err := h.service.ListUsers(c.Request().Context(), state, page, pageSize)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Paginated(c, users, page, pageSize, totalCount)
}

// GetUser godoc
// @Summary Get a user
// @Description Returns a user's conversation state and their most recent homework submissions
// @Tags users
// @Accept json
// @Produce json
// @Param x-api-key header string true "Admin API key"
// @Param phone path string true "WhatsApp number in international format without '+'"
// @Success 200 {object} response.SuccessResponse{data=UserDetails}
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} validator.ValidationErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/users/{phone} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	var req GetUserRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	user, homework, err := h.service.GetUser(c.Request().Context(), req.Phone)
	if err != nil {
		return response.InternalServerError(c, err)
	}
	if user == nil {
		return response.NotFound(c, "User not found")
	}

	return response.Ok(c, UserDetails{User: user, Homework: homework})
}

// GetUserStats godoc
// @Summary Get user statistics
// @Description Returns the number of users in each conversation state
// @Tags users
// @Accept json
// @Produce json
// @Param x-api-key header string true "Admin API key"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/users/stats [get]
func (h *UserHandler) GetUserStats(c echo.Context) error {
	counts, err := h.service.GetUserStats(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	byState := make(map[string]int64, len(domain.AllStates))
	for _, s := range domain.AllStates {
		byState[string(s)] = 0
	}

	var total int64
	for _, sc := range counts {
		byState[string(sc.State)] = sc.Count
		total += sc.Count
	}

	return response.Ok(c, map[string]any{
		"states": byState,
		"total":  total,
	})
}

func parsePaginationParams(c echo.Context) (int, int, error) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)

	pageStr := c.QueryParam("page")
	pageSizeStr := c.QueryParam("pageSize")

	page := defaultPage
	if pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p <= 0 {
			return 0, 0, fmt.Errorf("page must be a positive integer")
		}
		page = p
	}

	pageSize := defaultPageSize
	if pageSizeStr != "" {
		ps, err := strconv.Atoi(pageSizeStr)
		if err != nil || ps <= 0 || ps > maxPageSize {
			return 0, 0, fmt.Errorf("pageSize must be between 1 and %d", maxPageSize)
		}

		pageSize = ps
	}

	return page, pageSize, nil
}
