package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/amirasaad/ledger/infra/initializer"
	"github.com/amirasaad/ledger/pkg/app"
	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/domain/transaction"
	"github.com/amirasaad/ledger/pkg/dto"
	"github.com/fatih/color"
)

const timeLayout = "2006-01-02 15:04:05"

const usage = `Usage: cli <command> [arguments]
Commands:
  user add <name>
  account open <userId> <initialBalance> [type]
  account close <userId> <accountNumber>
  account list <userId>
  use <userId> <accountNumber> <amount>
  cancel <transactionId> <accountNumber> <amount>
  tx <transactionId>`

var (
	errUsage = errors.New("invalid arguments")

	okColor    = color.New(color.FgGreen, color.Bold)
	failColor  = color.New(color.FgRed, color.Bold)
	labelColor = color.New(color.FgCyan)
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(2)
	}
	cfg, err := config.Load(".env")
	if err != nil {
		say(os.Stderr, failColor, "Failed to load configuration:", "%v", err)
		os.Exit(1)
	}
	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		say(os.Stderr, failColor, "Failed to initialize dependencies:", "%v", err)
		os.Exit(1)
	}
	err = run(context.Background(), app.New(deps, cfg), os.Args[1:], os.Stdout)
	_ = deps.Close()
	if err != nil {
		if errors.Is(err, errUsage) {
			fmt.Println(usage)
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	err := dispatch(ctx, a, args, out)
	if err != nil && !errors.Is(err, errUsage) {
		say(out, failColor, string(domain.CodeOf(err)), "%s", domain.AsError(err).Message)
	}
	return err
}

func dispatch(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	switch args[0] {
	case "user":
		if len(args) != 3 || args[1] != "add" {
			return errUsage
		}
		u, err := a.UserService.CreateUser(ctx, args[2])
		if err != nil {
			return err
		}
		say(out, okColor, "User created", "id=%d name=%s", u.ID, u.Name)
		return nil
	case "account":
		return accountCommand(ctx, a, args[1:], out)
	case "use":
		if len(args) != 4 {
			return errUsage
		}
		userID, amount, err := parseIDAndAmount(args[1], args[3])
		if err != nil {
			return err
		}
		view, err := a.TransactionService.UseBalance(ctx, userID, args[2], amount)
		if err != nil {
			return err
		}
		printTransaction(out, view)
		return nil
	case "cancel":
		if len(args) != 4 {
			return errUsage
		}
		amount, err := strconv.ParseInt(args[3], 10, 64)
		if err != nil {
			return domain.Errorf(domain.InvalidRequest, "invalid amount %q", args[3])
		}
		view, err := a.TransactionService.CancelBalance(ctx, args[1], args[2], amount)
		if err != nil {
			return err
		}
		printTransaction(out, view)
		return nil
	case "tx":
		if len(args) != 2 {
			return errUsage
		}
		view, err := a.TransactionService.QueryTransaction(ctx, args[1])
		if err != nil {
			return err
		}
		printTransaction(out, view)
		return nil
	}
	return errUsage
}

func accountCommand(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) < 2 {
		return errUsage
	}
	userID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return domain.Errorf(domain.InvalidRequest, "invalid user id %q", args[1])
	}
	switch args[0] {
	case "open":
		if len(args) < 3 || len(args) > 4 {
			return errUsage
		}
		balance, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return domain.Errorf(domain.InvalidRequest, "invalid balance %q", args[2])
		}
		t := account.Checking
		if len(args) == 4 {
			t = account.Type(args[3])
		}
		view, err := a.AccountService.CreateAccount(ctx, userID, balance, t)
		if err != nil {
			return err
		}
		say(out, okColor, "Account opened", "number=%s type=%s balance=%d", view.AccountNumber, view.Type, view.Balance)
	case "close":
		if len(args) != 3 {
			return errUsage
		}
		view, err := a.AccountService.DeleteAccount(ctx, userID, args[2])
		if err != nil {
			return err
		}
		say(out, okColor, "Account closed", "number=%s at=%s", view.AccountNumber, view.UnregisteredAt.Format(timeLayout))
	case "list":
		if len(args) != 2 {
			return errUsage
		}
		views, err := a.AccountService.GetAccountsByUserID(ctx, userID)
		if err != nil {
			return err
		}
		for _, v := range views {
			say(out, labelColor, v.AccountNumber, "%-24s %-12s %d", v.Type, v.Status, v.Balance)
		}
	default:
		return errUsage
	}
	return nil
}

func parseIDAndAmount(rawID, rawAmount string) (int64, int64, error) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return 0, 0, domain.Errorf(domain.InvalidRequest, "invalid user id %q", rawID)
	}
	amount, err := strconv.ParseInt(rawAmount, 10, 64)
	if err != nil {
		return 0, 0, domain.Errorf(domain.InvalidRequest, "invalid amount %q", rawAmount)
	}
	return id, amount, nil
}

func printTransaction(out io.Writer, v *dto.TransactionView) {
	c := okColor
	if v.Result != transaction.Success {
		c = failColor
	}
	say(out, c, string(v.Type)+" "+string(v.Result), "id=%s account=%s amount=%d balance=%d at=%s",
		v.TransactionID, v.AccountNumber, v.Amount, v.BalanceSnapshot, v.TransactedAt.Format(timeLayout))
}

// say prints a colored label followed by plain details.
func say(out io.Writer, c *color.Color, label, format string, args ...any) {
	_, _ = c.Fprint(out, label)
	_, _ = fmt.Fprintf(out, " "+format+"\n", args...)
}
