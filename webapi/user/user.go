package user

import (
	"strconv"
	"time"

	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/amirasaad/ledger/pkg/dto"
	usersvc "github.com/amirasaad/ledger/pkg/service/user"
	"github.com/amirasaad/ledger/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// CreateUserRequest represents the request body for registering an account holder.
type CreateUserRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// UserResponse is the public view of an account holder.
type UserResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Routes registers HTTP routes for account holders.
func Routes(app *fiber.App, userSvc *usersvc.Service) {
	app.Post("/user", CreateUser(userSvc))
	app.Get("/user/:id", GetUser(userSvc))
}

// CreateUser returns a Fiber handler for registering an account holder.
// @Summary Create a new user
// @Description Registers an account holder that can then open accounts.
// @Tags users
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "User details"
// @Success 201 {object} common.Response{data=UserResponse} "User created"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 500 {object} common.ProblemDetails "Internal server error"
// @Router /user [post]
func CreateUser(userSvc *usersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[CreateUserRequest](c)
		if input == nil {
			return err // error response already written
		}
		u, err := userSvc.CreateUser(c.UserContext(), input.Name)
		if err != nil {
			log.Errorf("Failed to create user: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to create user", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "User created", toResponse(u))
	}
}

// GetUser returns a Fiber handler for fetching an account holder.
// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} common.Response{data=UserResponse} "User found"
// @Failure 400 {object} common.ProblemDetails "Invalid user ID"
// @Failure 404 {object} common.ProblemDetails "User not found"
// @Router /user/{id} [get]
func GetUser(userSvc *usersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil || id < 1 {
			return common.ProblemDetailsJSON(c, "Invalid user ID",
				domain.Errorf(domain.InvalidRequest, "id must be a positive integer"))
		}
		u, err := userSvc.GetUser(c.UserContext(), id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "User not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "User found", toResponse(u))
	}
}

func toResponse(u *dto.UserView) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, CreatedAt: u.CreatedAt}
}
