// Package upgrade is the control flow between the package managers and the
// operator: query status, classify every candidate change, ask at the tier
// the policy demands, freeze the snapshot before the first mutating command,
// run the commands, and record how each decision went.
//
// Everything is sequential and blocking. One tool at a time, one command at
// a time, prompts read inline. A failed or declined candidate moves the run
// to the next one; nothing here aborts the process.
package upgrade

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/blackwell-systems/devup/internal/managers"
	"github.com/blackwell-systems/devup/internal/output"
	"github.com/blackwell-systems/devup/internal/policy"
	"github.com/blackwell-systems/devup/internal/run"
	"github.com/blackwell-systems/devup/internal/runlog"
)

// Engine drives one run's check and upgrade flows. It never talks to a
// package manager binary itself: statuses come from the managers, commands
// go through the logging Runner, and every outcome lands in the run context.
type Engine struct {
	Runner   managers.Runner // the run's logging runner
	Prompter Prompter
	Out      io.Writer

	Yes    bool // accept confirm-tier prompts without asking
	DryRun bool // classify and report, but stop before any mutating command
}

// toolStatus pairs a manager with its freshly queried state.
type toolStatus struct {
	mgr managers.Manager
	st  managers.Status
	err error // nil, ErrUnavailable-wrapped, or a query failure
}

// Check queries the given tools and prints their status without mutating
// anything. The results feed the snapshot builder; the check-only snapshot
// is written when the run closes.
func (e *Engine) Check(ctx context.Context, rc *run.Context, mgrs []managers.Manager) {
	statuses := e.survey(ctx, rc, mgrs)

	fmt.Fprintln(e.Out)
	fmt.Fprint(e.Out, output.RenderToolTable(toolRows(statuses)))

	for _, ts := range statuses {
		if len(ts.st.Outdated) == 0 {
			continue
		}
		fmt.Fprintf(e.Out, "\n%s:\n", ts.st.Name)
		fmt.Fprint(e.Out, output.RenderPackageTable(packageRows(ts.st)))
	}
}

// Upgrade checks and then upgrades each tool in turn. Candidates route
// through the confirmation policy one by one.
func (e *Engine) Upgrade(ctx context.Context, rc *run.Context, mgrs []managers.Manager) {
	for _, m := range mgrs {
		ts := e.surveyOne(ctx, rc, m)
		if ts.err != nil {
			continue
		}
		if rows := packageRows(ts.st); len(rows) > 0 {
			fmt.Fprint(e.Out, output.RenderPackageTable(rows))
		}
		e.upgradeTool(ctx, rc, ts)
	}
}

// UpgradeAll checks every tool first, so the snapshot holds the complete
// pre-state, then upgrades them in the fixed processing order.
func (e *Engine) UpgradeAll(ctx context.Context, rc *run.Context, mgrs []managers.Manager) {
	statuses := e.survey(ctx, rc, mgrs)

	fmt.Fprintln(e.Out)
	fmt.Fprint(e.Out, output.RenderToolTable(toolRows(statuses)))

	for _, ts := range statuses {
		if ts.err != nil {
			continue
		}
		fmt.Fprintf(e.Out, "\n%s\n", ts.st.Name)
		if rows := packageRows(ts.st); len(rows) > 0 {
			fmt.Fprint(e.Out, output.RenderPackageTable(rows))
		}
		e.upgradeTool(ctx, rc, ts)
	}
}

func (e *Engine) survey(ctx context.Context, rc *run.Context, mgrs []managers.Manager) []toolStatus {
	statuses := make([]toolStatus, 0, len(mgrs))
	for _, m := range mgrs {
		statuses = append(statuses, e.surveyOne(ctx, rc, m))
	}
	return statuses
}

// surveyOne queries one tool's state and records it into the snapshot
// builder. A missing binary is a notice, not a failure.
func (e *Engine) surveyOne(ctx context.Context, rc *run.Context, m managers.Manager) toolStatus {
	sp := output.NewSpinner(fmt.Sprintf("Checking %s", m.Name()))
	sp.SetWriter(e.Out)
	sp.Start()

	st, err := m.Status(ctx)
	ts := toolStatus{mgr: m, st: st, err: err}

	switch {
	case managers.IsUnavailable(err):
		sp.StopWithMessage(fmt.Sprintf("%s: not installed, skipping", m.Name()))
		rc.Eventf("%s not installed; skipping", m.Name())
	case err != nil:
		sp.StopWithMessage(fmt.Sprintf("%s: check failed: %v", m.Name(), err))
		rc.Eventf("%s status check failed: %v", m.Name(), err)
		if st.Name != "" {
			// Keep whatever the query learned before it failed.
			rc.CheckedTool(m.Name(), st)
		}
	default:
		sp.StopWithMessage(surveyLine(st))
		rc.CheckedTool(m.Name(), st)
	}
	return ts
}

// surveyLine is the one-line result printed when a tool's check finishes.
func surveyLine(st managers.Status) string {
	line := st.Name + " " + orUnknown(st.Current)
	if st.Source != "" {
		line += " [" + st.Source + "]"
	}
	if st.Latest != "" && st.Latest != st.Current {
		line += " (latest " + st.Latest + ")"
	}
	switch n := len(st.Outdated); {
	case n == 1:
		line += ": 1 outdated package"
	case n > 1:
		line += fmt.Sprintf(": %d outdated packages", n)
	}
	return line
}

// upgradeTool walks a tool's candidates in order and offers the manager's
// cleanup command once anything actually changed.
func (e *Engine) upgradeTool(ctx context.Context, rc *run.Context, ts toolStatus) {
	upgraded := 0
	for _, c := range candidates(ts.mgr, ts.st) {
		if e.runCandidate(ctx, rc, c) {
			upgraded++
		}
	}

	if upgraded == 0 || e.DryRun {
		return
	}

	if ts.mgr.Name() == "python" {
		fmt.Fprintln(e.Out, "\nPython upgraded. Recreate virtualenvs against the new interpreter and retest conda environments that pin a Python build.")
	}

	e.offerCleanup(ctx, rc, ts.mgr)
}

// candidate is one upgradable subject: a package, or the tool itself.
type candidate struct {
	tool       string
	subject    string
	current    string
	latest     string
	argvs      [][]string // tried in order until one succeeds
	delta      policy.Delta
	action     policy.Action
	manageable bool
	note       string
}

// candidates lists a tool's upgrade subjects in execution order: packages
// first, the tool itself last, so npm never replaces itself before its
// globals are done.
func candidates(m managers.Manager, st managers.Status) []candidate {
	var out []candidate

	for _, pkg := range st.Outdated {
		argv := m.PackageUpgrade(pkg.Name)
		if argv == nil {
			continue
		}
		d := policy.Assess(pkg.Current, pkg.Latest)
		out = append(out, candidate{
			tool:       m.Name(),
			subject:    pkg.Name,
			current:    pkg.Current,
			latest:     pkg.Latest,
			argvs:      [][]string{argv},
			delta:      d,
			action:     policy.DecideFor(d.Class, st.Manageable),
			manageable: st.Manageable,
		})
	}

	if st.Current != "" {
		d := policy.Assess(st.Current, st.Latest)
		out = append(out, candidate{
			tool:       m.Name(),
			subject:    m.Name(),
			current:    st.Current,
			latest:     st.Latest,
			argvs:      m.SelfUpgrade(st),
			delta:      d,
			action:     policy.DecideFor(d.Class, st.Manageable),
			manageable: st.Manageable,
			note:       st.Note,
		})
	}
	return out
}

// runCandidate takes one candidate through the policy gate and, when
// approved, through its upgrade command. Reports whether a mutating command
// succeeded. Exactly one decision is recorded per candidate.
func (e *Engine) runCandidate(ctx context.Context, rc *run.Context, c candidate) bool {
	dec := runlog.Decision{
		Tool:    c.tool,
		Subject: c.subject,
		Current: c.current,
		Latest:  c.latest,
		Class:   c.delta.Class.String(),
		Action:  c.action.String(),
		Note:    policy.Reason(c.delta),
	}

	if !c.manageable {
		reason := c.note
		if reason == "" {
			reason = "not managed by devup"
		}
		dec.Outcome = "skipped"
		dec.Note = reason
		fmt.Fprintf(e.Out, "  %s: skipped (%s)\n", c.subject, reason)
		rc.Decide(dec, "", nil)
		return false
	}

	if c.action == policy.ActionNone {
		dec.Outcome = "checked"
		rc.Decide(dec, "", nil)
		return false
	}

	if len(c.argvs) == 0 {
		dec.Outcome = "skipped"
		dec.Note = "no upgrade command for this change"
		rc.Decide(dec, "", nil)
		return false
	}

	if e.DryRun {
		dec.Outcome = "skipped"
		dec.Note = "dry-run"
		fmt.Fprintf(e.Out, "  dry-run: %s %s → %s would run %q\n",
			c.subject, orUnknown(c.current), orUnknown(c.latest),
			strings.Join(c.argvs[0], " "))
		rc.Decide(dec, "", nil)
		return false
	}

	if !e.approve(c) {
		dec.Outcome = "declined"
		fmt.Fprintf(e.Out, "  %s: declined\n", c.subject)
		rc.Decide(dec, "", nil)
		return false
	}

	// Last stop before mutating the machine.
	rc.FreezeSnapshot()

	var (
		res managers.Result
		err error
		cmd string
	)
	for _, argv := range c.argvs {
		cmd = strings.Join(argv, " ")
		sp := output.NewSpinner(fmt.Sprintf("Upgrading %s", c.subject))
		sp.SetWriter(e.Out)
		sp.Start()

		res, err = e.Runner.Run(ctx, argv...)
		if err == nil {
			sp.StopWithMessage(fmt.Sprintf("✓ %s %s → %s", c.subject, orUnknown(c.current), orUnknown(c.latest)))
			dec.Outcome = "upgraded"
			exit := res.ExitCode
			rc.Decide(dec, cmd, &exit)
			return true
		}
		sp.Stop()
	}

	dec.Outcome = "failed"
	fmt.Fprintf(e.Out, "  ⚠ %s upgrade failed: %v\n", c.subject, err)
	if managers.IsExitError(err) {
		exit := res.ExitCode
		rc.Decide(dec, cmd, &exit)
	} else {
		rc.Decide(dec, cmd, nil)
	}
	return false
}

// approve obtains whatever confirmation the candidate's tier demands.
func (e *Engine) approve(c candidate) bool {
	switch c.action {
	case policy.ActionAuto:
		fmt.Fprintf(e.Out, "  %s %s → %s: %s\n",
			c.subject, orUnknown(c.current), orUnknown(c.latest), policy.Reason(c.delta))
		return true

	case policy.ActionConfirm:
		if e.Yes {
			fmt.Fprintf(e.Out, "  %s %s → %s: accepted by --yes\n",
				c.subject, orUnknown(c.current), orUnknown(c.latest))
			return true
		}
		q := fmt.Sprintf("\nUpgrade %s %s → %s? (%s)",
			c.subject, orUnknown(c.current), orUnknown(c.latest), policy.Reason(c.delta))
		return e.Prompter.Confirm(q)

	case policy.ActionManualReview:
		// --yes never covers this tier.
		q := fmt.Sprintf("\n%s: %s → %s is a major version change%s. Review the changelog before proceeding.",
			c.subject, orUnknown(c.current), orUnknown(c.latest), downgradeSuffix(c.delta))
		return e.Prompter.ConfirmPhrase(q, "yes")
	}
	return false
}

// offerCleanup asks about the manager's housekeeping command after at least
// one upgrade ran. Always a fresh question: --yes covers upgrade prompts,
// not cache removal.
func (e *Engine) offerCleanup(ctx context.Context, rc *run.Context, m managers.Manager) {
	argv, question := m.Cleanup()
	if argv == nil {
		return
	}

	dec := runlog.Decision{
		Tool:    m.Name(),
		Subject: "cleanup",
		Action:  policy.ActionConfirm.String(),
	}
	if !e.Prompter.Confirm("\n" + question) {
		dec.Outcome = "declined"
		rc.Decide(dec, "", nil)
		return
	}

	cmd := strings.Join(argv, " ")
	sp := output.NewSpinner(fmt.Sprintf("Running %s", cmd))
	sp.SetWriter(e.Out)
	sp.Start()

	res, err := e.Runner.Run(ctx, argv...)
	if err != nil {
		sp.StopWithMessage(fmt.Sprintf("⚠ %s failed: %v", cmd, err))
		dec.Outcome = "failed"
		if managers.IsExitError(err) {
			exit := res.ExitCode
			rc.Decide(dec, cmd, &exit)
		} else {
			rc.Decide(dec, cmd, nil)
		}
		return
	}

	sp.StopWithMessage("✓ " + cmd)
	dec.Outcome = "cleaned"
	exit := res.ExitCode
	rc.Decide(dec, cmd, &exit)
}

func toolRows(statuses []toolStatus) []output.ToolRow {
	rows := make([]output.ToolRow, 0, len(statuses))
	for _, ts := range statuses {
		rows = append(rows, toolRow(ts))
	}
	return rows
}

func toolRow(ts toolStatus) output.ToolRow {
	name := ts.mgr.Name()
	switch {
	case managers.IsUnavailable(ts.err):
		return output.ToolRow{Tool: name, Note: "not installed"}
	case ts.err != nil:
		return output.ToolRow{Tool: name, Current: ts.st.Current, Note: "check failed: " + ts.err.Error()}
	}

	st := ts.st
	d := policy.Assess(st.Current, st.Latest)
	row := output.ToolRow{
		Tool:    name,
		Current: st.Current,
		Latest:  st.Latest,
		Class:   classLabel(d),
		Note:    st.Note,
	}
	if !st.Manageable {
		// Action stays empty; the note carries the veto reason.
		return row
	}
	row.Action = policy.Decide(d.Class).String()
	return row
}

func packageRows(st managers.Status) []output.PackageRow {
	rows := make([]output.PackageRow, 0, len(st.Outdated))
	for _, pkg := range st.Outdated {
		d := policy.Assess(pkg.Current, pkg.Latest)
		rows = append(rows, output.PackageRow{
			Name:    pkg.Name,
			Current: pkg.Current,
			Latest:  pkg.Latest,
			Class:   classLabel(d),
			Action:  policy.Decide(d.Class).String(),
		})
	}
	return rows
}

// classLabel is the display form of a delta: the magnitude plus the
// downgrade flag the policy layer attaches.
func classLabel(d policy.Delta) string {
	if d.Downgrade {
		return d.Class.String() + " (downgrade)"
	}
	return d.Class.String()
}

func downgradeSuffix(d policy.Delta) string {
	if d.Downgrade {
		return " (downgrade)"
	}
	return ""
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
