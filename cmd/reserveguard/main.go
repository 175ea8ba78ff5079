package main

import (
	"fmt"
	"io"
	"os"
)

// Exit codes.
const (
	exitOK         = 0
	exitFailure    = 1 // internal, persistence or prover failure
	exitUsage      = 2
	exitValidation = 3
	exitNotFound   = 4
	exitRejected   = 5 // participant is blacklisted
	exitAdverse    = 6 // adverse verdict recorded
	exitConflict   = 7
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return exitUsage
	}

	switch args[0] {
	case "evaluate":
		return cmdEvaluate(args[1:], out, errOut)
	case "check-all":
		return cmdCheckAll(args[1:], out, errOut)
	case "check-blacklist":
		return cmdCheckBlacklist(args[1:], out, errOut)
	case "submit-appeal":
		return cmdSubmitAppeal(args[1:], out, errOut)
	case "list-appeals":
		return cmdListAppeals(args[1:], out, errOut)
	case "review-appeal":
		return cmdReviewAppeal(args[1:], out, errOut)
	case "reset-strikes":
		return cmdResetStrikes(args[1:], out, errOut)
	case "print-logs":
		return cmdPrintLogs(args[1:], out, errOut)
	case "reload-policy":
		return cmdReloadPolicy(args[1:], out, errOut)
	case "serve":
		return cmdServe(args[1:], out, errOut)
	case "issue-token":
		return cmdIssueToken(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return exitOK
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return exitUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "reserveguard: proof-of-reserves compliance tracking")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  reserveguard evaluate --bank <id> [--operator <id>] --asset <name=b1,b2:threshold> [--asset ...] [--liabilities l1,l2] [--json]")
	fmt.Fprintln(w, "  reserveguard evaluate --file <attestation.json|-> [--json]")
	fmt.Fprintln(w, "  reserveguard check-all --bank <id> --asset <name=b1,b2:threshold> [--asset ...] --liabilities l1,l2 [--json]")
	fmt.Fprintln(w, "  reserveguard check-blacklist <id>")
	fmt.Fprintln(w, "  reserveguard submit-appeal <id> <reason>")
	fmt.Fprintln(w, "  reserveguard list-appeals [--pending]")
	fmt.Fprintln(w, "  reserveguard review-appeal <index> <1|0>")
	fmt.Fprintln(w, "  reserveguard reset-strikes <id>")
	fmt.Fprintln(w, "  reserveguard print-logs [--participant <id>]")
	fmt.Fprintln(w, "  reserveguard reload-policy")
	fmt.Fprintln(w, "  reserveguard serve [--addr <host:port>]")
	fmt.Fprintln(w, "  reserveguard issue-token <subject> [--role admin] [--ttl 1h]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - configuration comes from RESERVEGUARD_* environment variables")
	fmt.Fprintln(w, "  - --liabilities switches evaluation to solvency mode; thresholds are then ignored")
	fmt.Fprintln(w, "  - check-all runs both modes on the same reserves and records nothing")
	fmt.Fprintln(w, "  - exit codes: 0 ok, 1 failure, 2 usage, 3 invalid input, 4 not found,")
	fmt.Fprintln(w, "    5 blacklisted, 6 adverse verdict recorded, 7 conflict")
}
