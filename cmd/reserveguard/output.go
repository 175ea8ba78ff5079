package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"reserveguard/internal/actionlog"
	"reserveguard/internal/appeal"
	"reserveguard/internal/compliance"
	"reserveguard/internal/participant"
	"reserveguard/internal/policy"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSubmission(w io.Writer, sub *compliance.Submission) {
	if sub.Evaluation == nil {
		fmt.Fprintln(w, "Attestation not evaluated: participant is blacklisted")
	} else {
		printEvaluation(w, sub)
	}
	fmt.Fprintf(w, "Result: %s\n", sub.Outcome.Result)
	printParticipant(w, sub.Outcome.Participant)
}

func printEvaluation(w io.Writer, sub *compliance.Submission) {
	eval := sub.Evaluation
	fmt.Fprintf(w, "Attestation %s\n", eval.CID)
	fmt.Fprintf(w, "Verdict: %s\n", eval.Verdict)
	for _, asset := range eval.Assets {
		status := "ok"
		if !asset.Passed {
			status = "below threshold"
		}
		fmt.Fprintf(w, "  %s: total %d, threshold %d (%s)\n", asset.Asset, asset.Total, asset.Threshold, status)
	}
	if eval.TotalLiabilities > 0 || eval.TotalAssets > 0 {
		fmt.Fprintf(w, "  total assets %d, total liabilities %d\n", eval.TotalAssets, eval.TotalLiabilities)
	}
	if sub.Trace != nil {
		fmt.Fprintln(w, "Prover logs:")
		for i, line := range sub.Trace.Lines {
			fmt.Fprintf(w, "  [%d] %s\n", i, line)
		}
	}
}

func printParticipant(w io.Writer, p participant.Participant) {
	fmt.Fprintf(w, "Participant %s: strikes=%d reputation=%d blacklisted=%t", p.ID, p.Strikes, p.Reputation, p.Blacklisted)
	if p.BlacklistReason != "" {
		fmt.Fprintf(w, " reason=%q", p.BlacklistReason)
	}
	fmt.Fprintln(w)
}

func printAppeal(w io.Writer, a appeal.Indexed) {
	status := "pending"
	if a.Appeal.Reviewed {
		status = "rejected"
		if a.Appeal.Approved {
			status = "approved"
		}
	}
	fmt.Fprintf(w, "Appeal #%d: %s %q (%s, submitted %s)\n",
		a.Index, a.Appeal.ParticipantID, a.Appeal.Reason, status, formatUnix(a.Appeal.Timestamp))
}

func printEntry(w io.Writer, e actionlog.Entry) {
	fmt.Fprintf(w, "%s %s %s", formatUnix(e.Timestamp), e.ParticipantID, e.Action)
	if e.Details != "" {
		fmt.Fprintf(w, " %q", e.Details)
	}
	if e.AttestationCID != "" {
		fmt.Fprintf(w, " cid=%s", e.AttestationCID)
	}
	fmt.Fprintln(w)
}

func printPolicy(w io.Writer, cfg *policy.Config) {
	fmt.Fprintln(w, "Policy loaded:")
	if err := policy.Encode(w, cfg); err != nil {
		fmt.Fprintf(w, "  %+v\n", *cfg)
	}
}

func formatUnix(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}
