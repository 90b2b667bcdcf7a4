package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/stemsi/exstem-console/internal/api"
	"github.com/stemsi/exstem-console/internal/format"
	"github.com/stemsi/exstem-console/internal/gateway"
	"github.com/stemsi/exstem-console/internal/model"
	"github.com/stemsi/exstem-console/internal/quizstatus"
)

var errUsage = errors.New("usage")

const usage = `usage: console <command> [arguments]

instructor:
  login [-u username]          sign in (password is prompted)
  logout                       sign out
  whoami                       show the signed-in instructor
  quizzes                      list quizzes with their status
  quiz <id>                    show a quiz and its slots
  create -title T [-desc D]    create a draft quiz
  update <id> [-title T] [-desc D] [-start RFC3339] [-end RFC3339]
  delete <id>                  delete a quiz
  publish <id>                 open a quiz for attempts
  close <id>                   stop accepting attempts
  add-slot <quiz-id> -bank B [-problem P] [-label L]
  remove-slot <quiz-id> <slot-id>
  banks                        list problem banks
  problems <bank-id>           list the problems of a bank
  analytics <quiz-id>          show rating statistics

student:
  take <public-id> -student S  start an attempt and print its link
  open <link>                  show the attempt behind a link
  submit <link> <slot>=<rating> ...
  share <attempt-id>           print the link of an attempt`

// console runs one command against the API client.
type console struct {
	client       *api.Client
	out          io.Writer
	in           io.Reader
	loc          *time.Location
	now          func() time.Time
	readPassword func() (string, error)
}

func (c *console) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(c.out, usage)
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return c.login(ctx, rest)
	case "logout":
		if err := c.client.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Logged out.")
		return nil
	case "whoami":
		return c.whoami(ctx)
	case "quizzes":
		return c.quizzes(ctx)
	case "quiz":
		return withID(rest, func(id int64) error { return c.quiz(ctx, id) })
	case "create":
		return c.create(ctx, rest)
	case "update":
		return c.update(ctx, rest)
	case "delete":
		return withID(rest, func(id int64) error {
			if err := c.client.DeleteQuiz(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Quiz %d deleted.\n", id)
			return nil
		})
	case "publish":
		return withID(rest, func(id int64) error {
			q, err := c.client.PublishQuiz(ctx, id)
			if err != nil {
				return err
			}
			return c.printQuiz(q)
		})
	case "close":
		return withID(rest, func(id int64) error {
			q, err := c.client.CloseQuiz(ctx, id)
			if err != nil {
				return err
			}
			return c.printQuiz(q)
		})
	case "add-slot":
		return c.addSlot(ctx, rest)
	case "remove-slot":
		return c.removeSlot(ctx, rest)
	case "banks":
		return c.banks(ctx)
	case "problems":
		return withID(rest, func(id int64) error { return c.problems(ctx, id) })
	case "analytics":
		return withID(rest, func(id int64) error { return c.analytics(ctx, id) })
	case "take":
		return c.take(ctx, rest)
	case "open":
		return c.open(ctx, rest)
	case "submit":
		return c.submit(ctx, rest)
	case "share":
		return withID(rest, func(id int64) error {
			fmt.Fprintln(c.out, c.client.AttemptLink(id))
			return nil
		})
	case "help", "-h", "--help":
		fmt.Fprintln(c.out, usage)
		return nil
	default:
		fmt.Fprintln(c.out, usage)
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

// ─── Auth ───────────────────────────────────────────────────────────────

func (c *console) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	username := fs.String("u", "", "username")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" {
		fmt.Fprint(c.out, "Username: ")
		line, err := bufio.NewReader(c.in).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read username: %w", err)
		}
		*username = strings.TrimSpace(line)
	}
	fmt.Fprint(c.out, "Password: ")
	password, err := c.readPassword()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	user, err := c.client.Login(ctx, *username, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Logged in as %s.\n", user.Username)
	return nil
}

func (c *console) whoami(ctx context.Context) error {
	if !c.client.IsAuthenticated(ctx) {
		fmt.Fprintln(c.out, "Not logged in.")
		return nil
	}
	user, err := c.client.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s (%s)\n", user.Username, user.Name)
	return nil
}

// ─── Quizzes ────────────────────────────────────────────────────────────

func (c *console) quizzes(ctx context.Context) error {
	quizzes, err := c.client.ListQuizzes(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tSLOTS\tSTART\tEND")
	for _, q := range quizzes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
			q.ID, q.Title, c.status(q).Label, q.SlotCount,
			format.Timestamp(q.StartTime, c.loc), format.Timestamp(q.EndTime, c.loc))
	}
	return tw.Flush()
}

func (c *console) quiz(ctx context.Context, id int64) error {
	q, err := c.client.GetQuiz(ctx, id)
	if err != nil {
		return err
	}
	return c.printQuiz(q)
}

func (c *console) printQuiz(q *model.Quiz) error {
	st := c.status(*q)
	fmt.Fprintf(c.out, "#%d %s [%s]\n", q.ID, q.Title, st.Label)
	if q.Description != "" {
		fmt.Fprintln(c.out, q.Description)
	}
	fmt.Fprintf(c.out, "public id: %s\nstart: %s\nend:   %s\n",
		q.PublicID, format.Timestamp(q.StartTime, c.loc), format.Timestamp(q.EndTime, c.loc))

	if len(q.Slots) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT\tLABEL\tBANK\tPROBLEM")
	for _, s := range q.Slots {
		problem := format.Placeholder
		if s.Problem != nil {
			problem = s.Problem.Title
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", s.ID, s.Label, s.BankID, problem)
	}
	return tw.Flush()
}

func (c *console) create(ctx context.Context, args []string) error {
	fs := newFlagSet("create")
	title := fs.String("title", "", "quiz title")
	desc := fs.String("desc", "", "quiz description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *title == "" {
		return fmt.Errorf("create: -title is required: %w", errUsage)
	}

	q, err := c.client.CreateQuiz(ctx, model.CreateQuizRequest{Title: *title, Description: *desc})
	if err != nil {
		return err
	}
	return c.printQuiz(q)
}

func (c *console) update(ctx context.Context, args []string) error {
	id, rest, err := leadingID(args)
	if err != nil {
		return err
	}

	var req model.UpdateQuizRequest
	fs := newFlagSet("update")
	fs.Func("title", "quiz title", func(v string) error { req.Title = &v; return nil })
	fs.Func("desc", "quiz description", func(v string) error { req.Description = &v; return nil })
	fs.Func("start", "start time (RFC 3339, empty clears)", func(v string) error { req.StartTime = &v; return nil })
	fs.Func("end", "end time (RFC 3339, empty clears)", func(v string) error { req.EndTime = &v; return nil })
	if err := fs.Parse(rest); err != nil {
		return err
	}

	q, err := c.client.UpdateQuiz(ctx, id, req)
	if err != nil {
		return err
	}
	return c.printQuiz(q)
}

func (c *console) addSlot(ctx context.Context, args []string) error {
	quizID, rest, err := leadingID(args)
	if err != nil {
		return err
	}

	var req model.AddSlotRequest
	fs := newFlagSet("add-slot")
	fs.Int64Var(&req.BankID, "bank", 0, "bank id")
	fs.Func("problem", "problem id", func(v string) error {
		id, err := strconv.ParseInt(v, 10, 64)
		req.ProblemID = &id
		return err
	})
	fs.StringVar(&req.Label, "label", "", "slot label")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if req.BankID == 0 {
		return fmt.Errorf("add-slot: -bank is required: %w", errUsage)
	}

	slot, err := c.client.AddSlot(ctx, quizID, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Slot %d (%s) added at position %d.\n", slot.ID, slot.Label, slot.Order)
	return nil
}

func (c *console) removeSlot(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("remove-slot <quiz-id> <slot-id>: %w", errUsage)
	}
	quizID, err := parseID(args[0])
	if err != nil {
		return err
	}
	slotID, err := parseID(args[1])
	if err != nil {
		return err
	}
	if err := c.client.RemoveSlot(ctx, quizID, slotID); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Slot %d removed.\n", slotID)
	return nil
}

// ─── Banks ──────────────────────────────────────────────────────────────

func (c *console) banks(ctx context.Context) error {
	banks, err := c.client.ListBanks(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPROBLEMS")
	for _, b := range banks {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", b.ID, b.Name, b.ProblemCount)
	}
	return tw.Flush()
}

func (c *console) problems(ctx context.Context, bankID int64) error {
	problems, err := c.client.ListBankProblems(ctx, bankID)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t#\tTITLE")
	for _, p := range problems {
		fmt.Fprintf(tw, "%d\t%d\t%s\n", p.ID, p.Order, p.Title)
	}
	return tw.Flush()
}

// ─── Analytics ──────────────────────────────────────────────────────────

func (c *console) analytics(ctx context.Context, quizID int64) error {
	a, err := c.client.GetAnalytics(ctx, quizID)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "attempts: %d  raters: %d\n", a.AttemptCount, a.RaterCount)
	fmt.Fprintf(c.out, "fleiss kappa:   %s\n", format.Stat(a.FleissKappa))
	fmt.Fprintf(c.out, "cronbach alpha: %s\n", format.Stat(a.CronbachAlpha))

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT\tLABEL\tN\tMEAN\tSTD DEV")
	for _, s := range a.SlotSummaries {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", s.SlotID, s.Label, s.Count, format.Stat(s.Mean), format.Stat(s.StdDev))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(a.Correlations) > 0 {
		tw = tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SLOT A\tSLOT B\tN\tPEARSON")
		for _, r := range a.Correlations {
			fmt.Fprintf(tw, "%d\t%d\t%d\t%s\n", r.SlotA, r.SlotB, r.SampleCount, format.Stat(r.Pearson))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if len(a.PairedTTests) > 0 {
		tw = tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SLOT A\tSLOT B\tT\tP")
		for _, tt := range a.PairedTTests {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", tt.SlotA, tt.SlotB, format.Stat(tt.TStat), format.Stat(tt.PValue))
		}
		return tw.Flush()
	}
	return nil
}

// ─── Attempts ───────────────────────────────────────────────────────────

func (c *console) take(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("take <public-id> -student S: %w", errUsage)
	}
	publicID := args[0]

	fs := newFlagSet("take")
	student := fs.String("student", "", "student identifier")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if *student == "" {
		return fmt.Errorf("take: -student is required: %w", errUsage)
	}

	quiz, err := c.client.GetPublicQuiz(ctx, publicID)
	if err != nil {
		return err
	}
	attempt, err := c.client.StartAttempt(ctx, publicID, *student)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "%s: %d slots\n", quiz.Title, len(quiz.Slots))
	fmt.Fprintln(c.out, c.client.AttemptLink(attempt.ID))
	return nil
}

func (c *console) open(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("open <link>: %w", errUsage)
	}
	a, err := c.client.ResolveAttemptLink(ctx, args[0])
	if err != nil {
		return err
	}

	state := "in progress"
	if a.Submitted() {
		state = "submitted " + format.Timestamp(a.SubmittedAt, c.loc)
	}
	fmt.Fprintf(c.out, "attempt %d by %s, %s\n", a.ID, a.StudentIdentifier, state)
	for _, ans := range a.Answers {
		fmt.Fprintf(c.out, "  slot %d: %d\n", ans.SlotID, ans.Rating)
	}
	return nil
}

func (c *console) submit(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("submit <link> <slot>=<rating> ...: %w", errUsage)
	}
	id, err := c.client.AttemptIDFromLink(args[0])
	if err != nil {
		return err
	}

	answers := make([]model.Answer, 0, len(args)-1)
	for _, pair := range args[1:] {
		slot, rating, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("answer %q: want <slot>=<rating>: %w", pair, errUsage)
		}
		slotID, err := parseID(slot)
		if err != nil {
			return err
		}
		r, err := strconv.Atoi(rating)
		if err != nil {
			return fmt.Errorf("answer %q: rating must be a number", pair)
		}
		answers = append(answers, model.Answer{SlotID: slotID, Rating: r})
	}

	a, err := c.client.SubmitAttempt(ctx, id, answers)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Attempt %d submitted with %d answers.\n", a.ID, len(a.Answers))
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────

func (c *console) status(q model.Quiz) quizstatus.Status {
	return quizstatus.Resolver{Now: c.now}.ForQuiz(q)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func leadingID(args []string) (int64, []string, error) {
	if len(args) == 0 {
		return 0, nil, fmt.Errorf("missing id: %w", errUsage)
	}
	id, err := parseID(args[0])
	return id, args[1:], err
}

func withID(args []string, fn func(int64) error) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one id: %w", errUsage)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return fn(id)
}

// describe renders API errors with their field messages.
func describe(err error) string {
	apiErr, ok := gateway.AsAPIError(err)
	if !ok {
		return err.Error()
	}
	msg := fmt.Sprintf("%s (HTTP %d)", apiErr.Detail, apiErr.StatusCode)
	for field, m := range apiErr.Fields {
		msg += fmt.Sprintf("\n  %s: %s", field, m)
	}
	return msg
}
