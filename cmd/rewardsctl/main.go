package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"lendrewards/services/rewards/client"
)

const (
	defaultAddr    = "127.0.0.1:50061"
	defaultTimeout = 10 * time.Second
	tokenEnv       = "REWARDSCTL_TOKEN"
)

var errUsage = errors.New("usage")

// dialFunc is replaced in tests.
var dialFunc = func(addr, token string) (rewardsClient, error) {
	c, err := client.Dial(addr, nil, client.WithBearerToken(token))
	if err != nil {
		return nil, err
	}
	return c, nil
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, c rewardsClient, fs *flag.FlagSet, args []string) (any, error)
}

var commands = []command{
	{name: "claimable", summary: "preview claimable rewards", run: runClaimable},
	{name: "claim", summary: "claim rewards for one account", run: runClaim},
	{name: "claim-batch", summary: "claim rewards for several accounts", run: runClaimBatch},
	{name: "set-speed", summary: "set a stream's reward speed", run: runSetSpeed},
	{name: "state", summary: "show a market's reward streams", run: runState},
	{name: "pause", summary: "pause claims", run: runPause(true)},
	{name: "resume", summary: "resume claims", run: runPause(false)},
	{name: "migrate", summary: "freeze the engine and cut over to the next version", run: runMigrate},
	{name: "supply", summary: "supply liquidity to a market", run: runLedger("supply")},
	{name: "withdraw", summary: "withdraw supplied liquidity", run: runLedger("withdraw")},
	{name: "borrow", summary: "borrow from a market", run: runLedger("borrow")},
	{name: "repay", summary: "repay borrowed balance", run: runLedger("repay")},
	{name: "position", summary: "show an account's market position", run: runPosition},
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			usage(os.Stderr)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		return errUsage
	}
	cmd, ok := lookup(args[0])
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
	fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	addr := fs.String("addr", defaultAddr, "rewardsd gRPC endpoint")
	token := fs.String("token", os.Getenv(tokenEnv), "API token or signed JWT")
	timeout := fs.Duration("timeout", defaultTimeout, "request timeout")
	registerFlags(cmd.name, fs)
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%s: %w", cmd.name, err)
	}

	c, err := dialFunc(*addr, *token)
	if err != nil {
		return fmt.Errorf("dial %s: %w", *addr, err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	result, err := cmd.run(ctx, c, fs, fs.Args())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func lookup(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

func registerFlags(name string, fs *flag.FlagSet) {
	switch name {
	case "claimable", "claim", "claim-batch":
		fs.String("kind", "protocol", "reward kind name or id")
		fs.Uint("engine-version", 0, "engine version to address, 0 for the active one")
		if name == "claimable" {
			fs.String("market", "", "restrict the preview to one market")
		}
	case "set-speed":
		fs.String("kind", "protocol", "reward kind name or id")
		fs.String("market", "", "market address")
		fs.String("side", "supply", "supply or borrow")
	case "supply", "withdraw", "borrow", "repay", "position":
		fs.String("market", "", "market address")
	}
}

func flagValue(fs *flag.FlagSet, name string) string {
	if f := fs.Lookup(name); f != nil {
		return strings.TrimSpace(f.Value.String())
	}
	return ""
}

func engineVersion(fs *flag.FlagSet) (uint32, error) {
	raw := flagValue(fs, "engine-version")
	if raw == "" {
		return 0, nil
	}
	version, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: -engine-version out of range", errUsage)
	}
	return uint32(version), nil
}

func requireArgs(fs *flag.FlagSet, args []string, n int, names string) error {
	if len(args) != n {
		return fmt.Errorf("%w: %s expects %s", errUsage, fs.Name(), names)
	}
	return nil
}

func runClaimable(ctx context.Context, c rewardsClient, fs *flag.FlagSet, args []string) (any, error) {
	if err := requireArgs(fs, args, 1, "<account>"); err != nil {
		return nil, err
	}
	version, err := engineVersion(fs)
	if err != nil {
		return nil, err
	}
	return c.Claimable(ctx, version, flagValue(fs, "kind"), flagValue(fs, "market"), args[0])
}

func runClaim(ctx context.Context, c rewardsClient, fs *flag.FlagSet, args []string) (any, error) {
	if err := requireArgs(fs, args, 1, "<account>"); err != nil {
		return nil, err
	}
	version, err := engineVersion(fs)
	if err != nil {
		return nil, err
	}
	return c.Claim(ctx, version, flagValue(fs, "kind"), args[0])
}

func runClaimBatch(ctx context.Context, c rewardsClient, fs *flag.FlagSet, args []string) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: claim-batch expects <account>...", errUsage)
	}
	version, err := engineVersion(fs)
	if err != nil {
		return nil, err
	}
	return c.ClaimBatch(ctx, version, flagValue(fs, "kind"), args)
}

func runSetSpeed(ctx context.Context, c rewardsClient, fs *flag.FlagSet, args []string) (any, error) {
	if err := requireArgs(fs, args, 1, "<speed>"); err != nil {
		return nil, err
	}
	market := flagValue(fs, "market")
	if market == "" {
		return nil, fmt.Errorf("%w: set-speed requires -market", errUsage)
	}
	if err := c.SetRewardSpeed(ctx, market, flagValue(fs, "kind"), flagValue(fs, "side"), args[0]); err != nil {
		return nil, err
	}
	return map[string]string{"status": "ok"}, nil
}

func runState(ctx context.Context, c rewardsClient, fs *flag.FlagSet, args []string) (any, error) {
	if err := requireArgs(fs, args, 1, "<market>"); err != nil {
		return nil, err
	}
	return c.State(ctx, args[0])
}

func runPause(paused bool) func(context.Context, rewardsClient, *flag.FlagSet, []string) (any, error) {
	return func(ctx context.Context, c rewardsClient, fs *flag.FlagSet, args []string) (any, error) {
		if err := requireArgs(fs, args, 0, "no arguments"); err != nil {
			return nil, err
		}
		state, err := c.SetPaused(ctx, paused)
		if err != nil {
			return nil, err
		}
		return map[string]bool{"claimsPaused": state}, nil
	}
}

func runMigrate(ctx context.Context, c rewardsClient, fs *flag.FlagSet, args []string) (any, error) {
	if err := requireArgs(fs, args, 0, "no arguments"); err != nil {
		return nil, err
	}
	return c.Migrate(ctx)
}

func runLedger(op string) func(context.Context, rewardsClient, *flag.FlagSet, []string) (any, error) {
	return func(ctx context.Context, c rewardsClient, fs *flag.FlagSet, args []string) (any, error) {
		if err := requireArgs(fs, args, 2, "<account> <amount>"); err != nil {
			return nil, err
		}
		market := flagValue(fs, "market")
		if market == "" {
			return nil, fmt.Errorf("%w: %s requires -market", errUsage, op)
		}
		account, amount := args[0], args[1]
		var err error
		switch op {
		case "supply":
			err = c.Supply(ctx, account, market, amount)
		case "withdraw":
			err = c.Withdraw(ctx, account, market, amount)
		case "borrow":
			err = c.Borrow(ctx, account, market, amount)
		case "repay":
			repaid, rerr := c.Repay(ctx, account, market, amount)
			if rerr != nil {
				return nil, rerr
			}
			return map[string]string{"repaid": repaid}, nil
		}
		if err != nil {
			return nil, err
		}
		return map[string]string{"status": "ok"}, nil
	}
}

func runPosition(ctx context.Context, c rewardsClient, fs *flag.FlagSet, args []string) (any, error) {
	if err := requireArgs(fs, args, 1, "<account>"); err != nil {
		return nil, err
	}
	market := flagValue(fs, "market")
	if market == "" {
		return nil, fmt.Errorf("%w: position requires -market", errUsage)
	}
	return c.Position(ctx, market, args[0])
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: rewardsctl <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-12s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Common flags: -addr (default %s), -token (or $%s), -timeout\n", defaultAddr, tokenEnv)
}
