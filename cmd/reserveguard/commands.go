package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"reserveguard/internal/attestation"
	jwttoken "reserveguard/internal/jwt_token"
	"reserveguard/internal/moderation"
	"reserveguard/internal/platform/config"
)

// issuer is the iss claim on tokens minted by issue-token and required by serve.
const issuer = "reserveguard"

func cmdEvaluate(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	fs.SetOutput(errOut)
	bank := fs.String("bank", "", "participant (bank) id")
	operator := fs.String("operator", "", "reserve operator id (defaults to --bank)")
	file := fs.String("file", "", "attestation JSON document, - for stdin")
	asJSON := fs.Bool("json", false, "print the submission as JSON")
	var assets assetFlags
	var liabilities amountsFlag
	fs.Var(&assets, "asset", "asset reserve as name=b1,b2:threshold (repeatable)")
	fs.Var(&liabilities, "liabilities", "comma-separated liabilities; selects solvency mode")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(errOut, "evaluate takes no positional arguments")
		return exitUsage
	}

	var a attestation.Attestation
	switch {
	case *file != "":
		if *bank != "" || len(assets) > 0 || liabilities.set {
			fmt.Fprintln(errOut, "--file cannot be combined with --bank, --asset or --liabilities")
			return exitUsage
		}
		decoded, err := readAttestation(*file)
		if err != nil {
			return fail(errOut, err)
		}
		a = decoded
	case *bank != "":
		reserves, err := assets.parse()
		if err != nil {
			return fail(errOut, err)
		}
		a = attestation.Attestation{
			BankID:          *bank,
			ReserveOperator: *operator,
			Assets:          reserves,
		}
		if a.ReserveOperator == "" {
			a.ReserveOperator = *bank
		}
		if liabilities.set {
			if a.Liabilities, err = liabilities.parse(); err != nil {
				return fail(errOut, err)
			}
		}
	default:
		fmt.Fprintln(errOut, "evaluate requires --bank or --file")
		return exitUsage
	}

	ctx := context.Background()
	app, err := newApp(ctx, errOut)
	if err != nil {
		return fail(errOut, err)
	}
	defer app.finish(ctx, "evaluate")

	sub, err := app.service.EvaluateAttestation(ctx, a)
	if err != nil {
		return fail(errOut, err)
	}
	if *asJSON {
		if err := writeJSON(out, sub); err != nil {
			return fail(errOut, err)
		}
	} else {
		printSubmission(out, sub)
	}

	switch sub.Outcome.Result {
	case moderation.ResultRejected:
		return exitRejected
	case moderation.ResultPenalized, moderation.ResultBlacklisted:
		return exitAdverse
	default:
		return exitOK
	}
}

// cmdCheckAll proves the same reserves twice, once against the asset
// thresholds and once against the liabilities. Nothing is recorded.
func cmdCheckAll(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("check-all", flag.ContinueOnError)
	fs.SetOutput(errOut)
	bank := fs.String("bank", "", "participant (bank) id")
	operator := fs.String("operator", "", "reserve operator id (defaults to --bank)")
	asJSON := fs.Bool("json", false, "print both checks as JSON")
	var assets assetFlags
	var liabilities amountsFlag
	fs.Var(&assets, "asset", "asset reserve as name=b1,b2:threshold (repeatable)")
	fs.Var(&liabilities, "liabilities", "comma-separated liabilities for the solvency check")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 0 || *bank == "" || !liabilities.set {
		fmt.Fprintln(errOut, "usage: reserveguard check-all --bank <id> --asset <spec> [--asset ...] --liabilities l1,l2")
		return exitUsage
	}

	reserves, err := assets.parse()
	if err != nil {
		return fail(errOut, err)
	}
	owed, err := liabilities.parse()
	if err != nil {
		return fail(errOut, err)
	}
	if *operator == "" {
		*operator = *bank
	}
	threshold := attestation.Attestation{BankID: *bank, ReserveOperator: *operator, Assets: reserves}
	solvency := attestation.Attestation{BankID: *bank, ReserveOperator: *operator, Liabilities: owed}
	for _, r := range reserves {
		r.Threshold = 0
		solvency.Assets = append(solvency.Assets, r)
	}

	ctx := context.Background()
	app, err := newApp(ctx, errOut)
	if err != nil {
		return fail(errOut, err)
	}
	defer app.finish(ctx, "check-all")

	reservesCheck, err := app.service.CheckAttestation(ctx, threshold)
	if err != nil {
		return fail(errOut, err)
	}
	solvencyCheck, err := app.service.CheckAttestation(ctx, solvency)
	if err != nil {
		return fail(errOut, err)
	}

	if *asJSON {
		if err := writeJSON(out, map[string]any{
			"reserves": reservesCheck.Evaluation,
			"solvency": solvencyCheck.Evaluation,
		}); err != nil {
			return fail(errOut, err)
		}
		return exitOK
	}
	fmt.Fprintln(out, "=== Proof of Reserves ===")
	printEvaluation(out, reservesCheck)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "=== Proof of Solvency ===")
	printEvaluation(out, solvencyCheck)
	return exitOK
}

func readAttestation(path string) (attestation.Attestation, error) {
	if path == "-" {
		return attestation.Decode(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return attestation.Attestation{}, fmt.Errorf("open attestation: %w", err)
	}
	defer f.Close()
	return attestation.Decode(f)
}

func cmdCheckBlacklist(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("check-blacklist", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: reserveguard check-blacklist <id>")
		return exitUsage
	}

	ctx := context.Background()
	app, err := newApp(ctx, errOut)
	if err != nil {
		return fail(errOut, err)
	}
	defer app.finish(ctx, "check-blacklist")

	p, err := app.service.CheckBlacklist(ctx, fs.Arg(0))
	if err != nil {
		return fail(errOut, err)
	}
	printParticipant(out, p)
	return exitOK
}

func cmdSubmitAppeal(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("submit-appeal", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(errOut, "usage: reserveguard submit-appeal <id> <reason>")
		return exitUsage
	}

	ctx := context.Background()
	app, err := newApp(ctx, errOut)
	if err != nil {
		return fail(errOut, err)
	}
	defer app.finish(ctx, "submit-appeal")

	queued, err := app.service.SubmitAppeal(ctx, fs.Arg(0), fs.Arg(1))
	if err != nil {
		return fail(errOut, err)
	}
	fmt.Fprintf(out, "Appeal #%d submitted for %s\n", queued.Index, queued.Appeal.ParticipantID)
	return exitOK
}

func cmdListAppeals(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("list-appeals", flag.ContinueOnError)
	fs.SetOutput(errOut)
	pending := fs.Bool("pending", false, "only appeals awaiting review")
	asJSON := fs.Bool("json", false, "print appeals as JSON")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(errOut, "usage: reserveguard list-appeals [--pending]")
		return exitUsage
	}

	ctx := context.Background()
	app, err := newApp(ctx, errOut)
	if err != nil {
		return fail(errOut, err)
	}
	defer app.finish(ctx, "list-appeals")

	appeals, err := app.service.ListAppeals(ctx, *pending)
	if err != nil {
		return fail(errOut, err)
	}
	if *asJSON {
		if err := writeJSON(out, appeals); err != nil {
			return fail(errOut, err)
		}
		return exitOK
	}
	if len(appeals) == 0 {
		fmt.Fprintln(out, "No appeals")
	}
	for _, a := range appeals {
		printAppeal(out, a)
	}
	return exitOK
}

func cmdReviewAppeal(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("review-appeal", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(errOut, "usage: reserveguard review-appeal <index> <1|0>")
		return exitUsage
	}
	index, err := strconv.Atoi(fs.Arg(0))
	if err != nil || index < 0 {
		fmt.Fprintf(errOut, "invalid appeal index %q\n", fs.Arg(0))
		return exitUsage
	}
	var approve bool
	switch fs.Arg(1) {
	case "1":
		approve = true
	case "0":
		approve = false
	default:
		fmt.Fprintf(errOut, "invalid decision %q: want 1 (approve) or 0 (reject)\n", fs.Arg(1))
		return exitUsage
	}

	ctx := context.Background()
	app, err := newApp(ctx, errOut)
	if err != nil {
		return fail(errOut, err)
	}
	defer app.finish(ctx, "review-appeal")

	reviewed, err := app.service.ReviewAppeal(ctx, index, approve)
	if err != nil {
		return fail(errOut, err)
	}
	decision := "rejected"
	if reviewed.Appeal.Approved {
		decision = "approved"
	}
	fmt.Fprintf(out, "Appeal #%d for %s %s\n", reviewed.Index, reviewed.Appeal.ParticipantID, decision)
	return exitOK
}

func cmdResetStrikes(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("reset-strikes", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: reserveguard reset-strikes <id>")
		return exitUsage
	}

	ctx := context.Background()
	app, err := newApp(ctx, errOut)
	if err != nil {
		return fail(errOut, err)
	}
	defer app.finish(ctx, "reset-strikes")

	p, err := app.service.ResetStrikes(ctx, fs.Arg(0))
	if err != nil {
		return fail(errOut, err)
	}
	fmt.Fprintf(out, "Strikes reset for %s\n", p.ID)
	printParticipant(out, p)
	return exitOK
}

func cmdPrintLogs(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("print-logs", flag.ContinueOnError)
	fs.SetOutput(errOut)
	participantID := fs.String("participant", "", "only entries for this participant")
	asJSON := fs.Bool("json", false, "print entries as JSON")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(errOut, "usage: reserveguard print-logs [--participant <id>]")
		return exitUsage
	}

	ctx := context.Background()
	app, err := newApp(ctx, errOut)
	if err != nil {
		return fail(errOut, err)
	}
	defer app.finish(ctx, "print-logs")

	entries, err := app.service.Logs(ctx, *participantID)
	if err != nil {
		return fail(errOut, err)
	}
	if *asJSON {
		if err := writeJSON(out, entries); err != nil {
			return fail(errOut, err)
		}
		return exitOK
	}
	for _, e := range entries {
		printEntry(out, e)
	}
	return exitOK
}

func cmdReloadPolicy(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("reload-policy", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(errOut, "usage: reserveguard reload-policy")
		return exitUsage
	}

	ctx := context.Background()
	app, err := newApp(ctx, errOut)
	if err != nil {
		return fail(errOut, err)
	}
	defer app.finish(ctx, "reload-policy")

	cfg, found, err := app.service.ReloadPolicy(ctx)
	if err != nil {
		return fail(errOut, err)
	}
	if !found {
		fmt.Fprintf(out, "Policy file %s not found, using defaults\n", app.cfg.PolicyPath)
	}
	printPolicy(out, cfg)
	return exitOK
}

func cmdIssueToken(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("issue-token", flag.ContinueOnError)
	fs.SetOutput(errOut)
	role := fs.String("role", jwttoken.RoleAdmin, "role claim")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: reserveguard issue-token <subject> [--role admin] [--ttl 1h]")
		return exitUsage
	}
	if *ttl <= 0 {
		fmt.Fprintln(errOut, "--ttl must be positive")
		return exitUsage
	}

	cfg := config.FromEnv()
	token, err := jwttoken.NewJWTService(cfg.JWTSigningKey, issuer).Issue(fs.Arg(0), *role, *ttl)
	if err != nil {
		return fail(errOut, err)
	}
	fmt.Fprintln(out, token)
	return exitOK
}
