package account

import (
	"strconv"

	"github.com/amirasaad/ledger/pkg/domain"
	domainaccount "github.com/amirasaad/ledger/pkg/domain/account"
	accountsvc "github.com/amirasaad/ledger/pkg/service/account"
	"github.com/amirasaad/ledger/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// Routes registers HTTP routes for account lifecycle operations.
//
// Routes:
//   - POST   /account            : Open a new account for a user.
//   - DELETE /account            : Unregister an account with a zero balance.
//   - GET    /account?user_id=   : List the accounts of a user.
func Routes(app *fiber.App, accountSvc *accountsvc.Locked) {
	app.Post("/account", CreateAccount(accountSvc))
	app.Delete("/account", DeleteAccount(accountSvc))
	app.Get("/account", ListAccounts(accountSvc))
}

// CreateAccount returns a Fiber handler for opening an account.
// @Summary Open a new account
// @Description Opens an account for the user with the given initial balance. The account type defaults to CHECKING.
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body CreateAccountRequest true "Account details"
// @Success 201 {object} common.Response{data=CreateAccountResponse} "Account created"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 404 {object} common.ProblemDetails "User not found"
// @Failure 409 {object} common.ProblemDetails "Account limit reached"
// @Failure 423 {object} common.ProblemDetails "User is busy"
// @Failure 429 {object} common.ProblemDetails "Too many requests"
// @Failure 500 {object} common.ProblemDetails "Internal server error"
// @Router /account [post]
func CreateAccount(accountSvc *accountsvc.Locked) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[CreateAccountRequest](c)
		if input == nil {
			return err // error response already written
		}
		accountType := domainaccount.Checking
		if input.AccountType != "" {
			accountType = domainaccount.Type(input.AccountType)
		}
		log.Infof("Creating account for user %d", input.UserID)
		a, err := accountSvc.CreateAccount(c.UserContext(), input.UserID, input.InitialBalance, accountType)
		if err != nil {
			log.Errorf("Failed to create account: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to create account", err)
		}
		log.Infof("Account created: %s", a.AccountNumber)
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Account created", toCreateResponse(a))
	}
}

// DeleteAccount returns a Fiber handler for unregistering an account.
// @Summary Unregister an account
// @Description Unregisters an account owned by the user. The balance must be zero.
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body DeleteAccountRequest true "Account to unregister"
// @Success 200 {object} common.Response{data=DeleteAccountResponse} "Account unregistered"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 403 {object} common.ProblemDetails "Account belongs to another user"
// @Failure 404 {object} common.ProblemDetails "User or account not found"
// @Failure 409 {object} common.ProblemDetails "Already unregistered or balance not empty"
// @Failure 423 {object} common.ProblemDetails "Account is busy"
// @Failure 500 {object} common.ProblemDetails "Internal server error"
// @Router /account [delete]
func DeleteAccount(accountSvc *accountsvc.Locked) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[DeleteAccountRequest](c)
		if input == nil {
			return err // error response already written
		}
		a, err := accountSvc.DeleteAccount(c.UserContext(), input.UserID, input.AccountNumber)
		if err != nil {
			log.Errorf("Failed to unregister account %s: %v", input.AccountNumber, err)
			return common.ProblemDetailsJSON(c, "Failed to unregister account", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Account unregistered", toDeleteResponse(a))
	}
}

// ListAccounts returns a Fiber handler listing the accounts of a user.
// @Summary List accounts
// @Description Lists every account of the user, including unregistered ones.
// @Tags accounts
// @Produce json
// @Param user_id query int true "User ID"
// @Success 200 {object} common.Response{data=[]AccountSummary} "Accounts fetched"
// @Failure 400 {object} common.ProblemDetails "Invalid user ID"
// @Failure 404 {object} common.ProblemDetails "User not found"
// @Failure 500 {object} common.ProblemDetails "Internal server error"
// @Router /account [get]
func ListAccounts(accountSvc *accountsvc.Locked) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
		if err != nil || userID < 1 {
			return common.ProblemDetailsJSON(c, "Invalid user ID",
				domain.Errorf(domain.InvalidRequest, "user_id must be a positive integer"))
		}
		list, err := accountSvc.GetAccountsByUserID(c.UserContext(), userID)
		if err != nil {
			log.Errorf("Failed to list accounts for user %d: %v", userID, err)
			return common.ProblemDetailsJSON(c, "Failed to list accounts", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Accounts fetched", toSummaries(list))
	}
}
