package transaction

import (
	transactionsvc "github.com/amirasaad/ledger/pkg/service/transaction"
	"github.com/amirasaad/ledger/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// Routes registers HTTP routes for balance transactions.
//
// Routes:
//   - POST /transaction/use             : Draw an amount from an account.
//   - POST /transaction/cancel          : Fully reverse a previous use.
//   - GET  /transaction/:transactionId  : Look up a ledger record.
func Routes(app *fiber.App, txSvc *transactionsvc.Locked) {
	app.Post("/transaction/use", UseBalance(txSvc))
	app.Post("/transaction/cancel", CancelBalance(txSvc))
	app.Get("/transaction/:transactionId", QueryTransaction(txSvc))
}

// UseBalance returns a Fiber handler for drawing from an account balance.
// @Summary Use balance
// @Description Draws the amount from the account. Rejections after the account is found are recorded as FAIL ledger records.
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body UseRequest true "Use details"
// @Success 200 {object} common.Response{data=BalanceResponse} "Balance used"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 403 {object} common.ProblemDetails "Account belongs to another user"
// @Failure 404 {object} common.ProblemDetails "User or account not found"
// @Failure 409 {object} common.ProblemDetails "Account unregistered"
// @Failure 422 {object} common.ProblemDetails "Amount exceeds balance"
// @Failure 423 {object} common.ProblemDetails "Account is busy"
// @Failure 500 {object} common.ProblemDetails "Internal server error"
// @Router /transaction/use [post]
func UseBalance(txSvc *transactionsvc.Locked) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[UseRequest](c)
		if input == nil {
			return err // error response already written
		}
		view, err := txSvc.UseBalance(c.UserContext(), input.UserID, input.AccountNumber, input.Amount)
		if err != nil {
			log.Errorf("Failed to use balance of %s: %v", input.AccountNumber, err)
			return common.ProblemDetailsJSON(c, "Failed to use balance", err)
		}
		log.Infof("Balance used: %s", view.TransactionID)
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Balance used", toBalanceResponse(view))
	}
}

// CancelBalance returns a Fiber handler for reversing a previous use.
// @Summary Cancel a use
// @Description Reverses a successful use in full. Partial cancellation and uses older than one year are rejected.
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body CancelRequest true "Cancel details"
// @Success 200 {object} common.Response{data=BalanceResponse} "Use cancelled"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 404 {object} common.ProblemDetails "Transaction or account not found"
// @Failure 409 {object} common.ProblemDetails "Account unregistered"
// @Failure 422 {object} common.ProblemDetails "Cancellation rejected"
// @Failure 423 {object} common.ProblemDetails "Account is busy"
// @Failure 500 {object} common.ProblemDetails "Internal server error"
// @Router /transaction/cancel [post]
func CancelBalance(txSvc *transactionsvc.Locked) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[CancelRequest](c)
		if input == nil {
			return err // error response already written
		}
		view, err := txSvc.CancelBalance(c.UserContext(), input.TransactionID, input.AccountNumber, input.Amount)
		if err != nil {
			log.Errorf("Failed to cancel %s: %v", input.TransactionID, err)
			return common.ProblemDetailsJSON(c, "Failed to cancel transaction", err)
		}
		log.Infof("Transaction %s cancelled by %s", input.TransactionID, view.TransactionID)
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction cancelled", toBalanceResponse(view))
	}
}

// QueryTransaction returns a Fiber handler for looking up a ledger record.
// @Summary Get a transaction
// @Description Returns the ledger record with the given transaction ID, including FAIL records.
// @Tags transactions
// @Produce json
// @Param transactionId path string true "Transaction ID"
// @Success 200 {object} common.Response{data=QueryResponse} "Transaction fetched"
// @Failure 404 {object} common.ProblemDetails "Transaction not found"
// @Failure 500 {object} common.ProblemDetails "Internal server error"
// @Router /transaction/{transactionId} [get]
func QueryTransaction(txSvc *transactionsvc.Locked) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, err := txSvc.QueryTransaction(c.UserContext(), c.Params("transactionId"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to fetch transaction", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction fetched", toQueryResponse(view))
	}
}
