package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"bike-rental/command"
	"bike-rental/metrics"
	"bike-rental/rental"
)

// errAborted is returned by a parser when input ends mid-prompt.
var errAborted = errors.New("input ended")

// shell is the interactive loop: it prompts for each field of a command,
// builds the typed command and executes it against the manager.
type shell struct {
	sc  *bufio.Scanner
	out io.Writer
	mgr *rental.Manager

	readPassword func(prompt string) (string, error)
	metrics      *metrics.Collector
	logger       *slog.Logger

	parsers map[string]func() (command.Command, error)
}

func newShell(in io.Reader, out io.Writer, mgr *rental.Manager) *shell {
	sh := &shell{
		sc:     bufio.NewScanner(in),
		out:    out,
		mgr:    mgr,
		logger: slog.Default(),
	}
	sh.readPassword = func(prompt string) (string, error) {
		fmt.Fprint(sh.out, prompt)
		line, ok := sh.readLine()
		if !ok {
			return "", errAborted
		}
		return line, nil
	}
	sh.parsers = map[string]func() (command.Command, error){
		"add bike":     sh.parseAddBike,
		"delete bike":  sh.parseDeleteBike,
		"edit bike":    sh.parseEditBike,
		"list bikes":   func() (command.Command, error) { return command.ListBikes{}, nil },
		"clear bikes":  sh.parseClearBikes,
		"add loan":     sh.parseAddLoan,
		"return loan":  sh.parseReturnLoan,
		"edit loan":    sh.parseEditLoan,
		"delete loan":  sh.parseDeleteLoan,
		"list loans":   sh.parseListLoans,
		"find loans":   sh.parseFindLoans,
		"summary":      func() (command.Command, error) { return command.Summary{}, nil },
		"clear loans":  sh.parseClearLoans,
		"reset id":     sh.parseResetID,
		"undo":         func() (command.Command, error) { return command.Undo{}, nil },
		"redo":         func() (command.Command, error) { return command.Redo{}, nil },
		"set password": sh.parseSetPassword,
		"set email":    sh.parseSetEmail,
		"show email":   func() (command.Command, error) { return command.ShowEmail{}, nil },
	}
	return sh
}

// terminalPasswordReader masks input when in is a terminal and falls back
// to plain line reads otherwise (pipes, scripts).
func terminalPasswordReader(in io.Reader, out io.Writer, readLine func() (string, bool)) func(string) (string, error) {
	return func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		// ReadPassword bypasses the scanner's buffer, so lines typed ahead
		// of this prompt are consumed as commands rather than the password.
		if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			b, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(out) // Add newline after password input
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(string(b)), nil
		}
		line, ok := readLine()
		if !ok {
			return "", errAborted
		}
		return line, nil
	}
}

const helpText = `Available commands:
  Bikes:   add bike, delete bike, edit bike, list bikes, clear bikes
  Loans:   add loan, return loan, edit loan, delete loan, list loans, find loans, summary, clear loans, reset id
  History: undo, redo
  Account: set password, set email, show email
  System:  help, exit
Commands marked destructive (delete, clear, reset id, set password) ask for the password.`

func (sh *shell) run() error {
	fmt.Fprintln(sh.out, "Welcome to the Bike Rental loan tracker!")
	fmt.Fprintln(sh.out, helpText)

	for {
		fmt.Fprint(sh.out, "\n> ")
		line, ok := sh.readLine()
		if !ok {
			return nil
		}
		cmd := strings.ToLower(strings.Join(strings.Fields(line), " "))

		switch cmd {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintln(sh.out, "Goodbye!")
			return nil
		case "help":
			fmt.Fprintln(sh.out, helpText)
			continue
		}

		parse, known := sh.parsers[cmd]
		if !known {
			fmt.Fprintln(sh.out, "Unknown command. Type 'help' to see the available commands.")
			continue
		}
		c, err := parse()
		if errors.Is(err, errAborted) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(sh.out, "Error: %v\n", err)
			continue
		}
		sh.execute(c)
	}
}

func (sh *shell) execute(c command.Command) {
	start := time.Now()
	res, err := c.Execute(sh.mgr)
	if sh.metrics != nil {
		sh.metrics.RecordCommand(c.Name(), time.Since(start), err)
	}
	if err != nil {
		sh.logger.Info("command failed", "command", c.Name(), "error", err)
		fmt.Fprintf(sh.out, "Error: %v\n", err)
		return
	}
	sh.logger.Info("command executed", "command", c.Name())
	sh.printResult(c, res)
}

// ------------------ Input helpers ------------------

func (sh *shell) readLine() (string, bool) {
	if !sh.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(sh.sc.Text()), true
}

func (sh *shell) prompt(label string) (string, error) {
	fmt.Fprintf(sh.out, "%s: ", label)
	line, ok := sh.readLine()
	if !ok {
		return "", errAborted
	}
	return line, nil
}

// promptOptional returns nil when the user leaves the field blank.
func (sh *shell) promptOptional(label string) (*string, error) {
	v, err := sh.prompt(label + " (blank to keep)")
	if err != nil || v == "" {
		return nil, err
	}
	return &v, nil
}

func (sh *shell) promptLoanID() (int, error) {
	s, err := sh.prompt("Loan ID")
	if err != nil {
		return 0, err
	}
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid loan ID: %s", s)
	}
	return id, nil
}

func (sh *shell) promptProtected() (command.Protected, error) {
	pw, err := sh.readPassword("Password: ")
	if err != nil {
		return command.Protected{}, err
	}
	return command.Protect(pw), nil
}

func parseRate(s string) (float64, error) {
	r, err := strconv.ParseFloat(strings.TrimPrefix(s, "$"), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: rate %q is not a number", rental.ErrInvalidField, s)
	}
	return r, nil
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// ------------------ Parsers ------------------

func (sh *shell) parseAddBike() (command.Command, error) {
	name, err := sh.prompt("Bike name")
	if err != nil {
		return nil, err
	}
	b, err := rental.NewBike(name)
	if err != nil {
		return nil, err
	}
	return command.AddBike{Bike: b}, nil
}

func (sh *shell) parseDeleteBike() (command.Command, error) {
	name, err := sh.prompt("Bike name")
	if err != nil {
		return nil, err
	}
	p, err := sh.promptProtected()
	if err != nil {
		return nil, err
	}
	return command.DeleteBike{Protected: p, BikeName: name}, nil
}

func (sh *shell) parseEditBike() (command.Command, error) {
	name, err := sh.prompt("Bike name")
	if err != nil {
		return nil, err
	}
	newName, err := sh.prompt("New bike name")
	if err != nil {
		return nil, err
	}
	b, err := rental.NewBike(newName)
	if err != nil {
		return nil, err
	}
	return command.EditBike{BikeName: name, Renamed: b}, nil
}

func (sh *shell) parseClearBikes() (command.Command, error) {
	p, err := sh.promptProtected()
	if err != nil {
		return nil, err
	}
	return command.ClearBikes{Protected: p}, nil
}

func (sh *shell) parseAddLoan() (command.Command, error) {
	var d rental.LoanDetails
	fields := []struct {
		label string
		dst   *string
	}{
		{"Name", &d.Name},
		{"NRIC", &d.NRIC},
		{"Phone", &d.Phone},
		{"Email", &d.Email},
		{"Bike", &d.Bike},
	}
	for _, f := range fields {
		v, err := sh.prompt(f.label)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}
	rate, err := sh.prompt("Hourly rate")
	if err != nil {
		return nil, err
	}
	if d.Rate, err = parseRate(rate); err != nil {
		return nil, err
	}
	tags, err := sh.prompt("Tags (comma separated, optional)")
	if err != nil {
		return nil, err
	}
	d.Tags = splitTags(tags)

	l, err := rental.NewLoan(d)
	if err != nil {
		return nil, err
	}
	return command.AddLoan{Loan: l}, nil
}

func (sh *shell) parseReturnLoan() (command.Command, error) {
	id, err := sh.promptLoanID()
	if err != nil {
		return nil, err
	}
	return command.ReturnLoan{ID: id}, nil
}

func (sh *shell) parseEditLoan() (command.Command, error) {
	id, err := sh.promptLoanID()
	if err != nil {
		return nil, err
	}
	var e rental.LoanEdit
	for _, f := range []struct {
		label string
		dst   **string
	}{
		{"Name", &e.Name},
		{"NRIC", &e.NRIC},
		{"Phone", &e.Phone},
		{"Email", &e.Email},
		{"Bike", &e.Bike},
	} {
		if *f.dst, err = sh.promptOptional(f.label); err != nil {
			return nil, err
		}
	}
	rate, err := sh.promptOptional("Hourly rate")
	if err != nil {
		return nil, err
	}
	if rate != nil {
		r, err := parseRate(*rate)
		if err != nil {
			return nil, err
		}
		e.Rate = &r
	}
	tags, err := sh.promptOptional("Tags (comma separated, '-' to clear)")
	if err != nil {
		return nil, err
	}
	if tags != nil {
		t := splitTags(*tags)
		if *tags == "-" {
			t = []string{}
		}
		e.Tags = &t
	}
	return command.EditLoan{ID: id, Edit: e}, nil
}

func (sh *shell) parseDeleteLoan() (command.Command, error) {
	id, err := sh.promptLoanID()
	if err != nil {
		return nil, err
	}
	p, err := sh.promptProtected()
	if err != nil {
		return nil, err
	}
	return command.DeleteLoan{Protected: p, ID: id}, nil
}

func (sh *shell) parseListLoans() (command.Command, error) {
	s, err := sh.prompt("Filter (all, ongoing, returned)")
	if err != nil {
		return nil, err
	}
	f, err := command.ParseLoanFilter(s)
	if err != nil {
		return nil, err
	}
	return command.ListLoans{Filter: f}, nil
}

func (sh *shell) parseFindLoans() (command.Command, error) {
	s, err := sh.prompt("Keywords")
	if err != nil {
		return nil, err
	}
	kw := strings.Fields(s)
	if len(kw) == 0 {
		return nil, errors.New("at least one keyword is required")
	}
	return command.FindLoans{Keywords: kw}, nil
}

func (sh *shell) parseClearLoans() (command.Command, error) {
	p, err := sh.promptProtected()
	if err != nil {
		return nil, err
	}
	return command.ClearLoans{Protected: p}, nil
}

func (sh *shell) parseResetID() (command.Command, error) {
	p, err := sh.promptProtected()
	if err != nil {
		return nil, err
	}
	return command.ResetID{Protected: p}, nil
}

func (sh *shell) parseSetPassword() (command.Command, error) {
	oldPw, err := sh.readPassword("Current password: ")
	if err != nil {
		return nil, err
	}
	newPw, err := sh.readPassword("New password: ")
	if err != nil {
		return nil, err
	}
	confirm, err := sh.readPassword("Confirm new password: ")
	if err != nil {
		return nil, err
	}
	if newPw != confirm {
		return nil, errors.New("passwords do not match")
	}
	return command.NewSetPassword(oldPw, newPw), nil
}

func (sh *shell) parseSetEmail() (command.Command, error) {
	email, err := sh.prompt("Email")
	if err != nil {
		return nil, err
	}
	return command.SetEmail{Email: email}, nil
}

// ------------------ Output ------------------

func (sh *shell) printResult(c command.Command, res command.Result) {
	switch c.(type) {
	case command.ListBikes:
		sh.printBikes(res.Bikes)
	case command.ListLoans, command.FindLoans:
		sh.printLoans(res.Loans)
	case command.Summary:
		s := res.Summary
		fmt.Fprintf(sh.out, "%-12s %d\n%-12s %d\n%-12s %d\n%-12s $%.2f\n%-12s $%.2f\n",
			"Total", s.Total, "Ongoing", s.Ongoing, "Returned", s.Returned, "Revenue", s.Revenue, "Accrued", s.Accrued)
		return
	}
	fmt.Fprintln(sh.out, res.Message)
}

func (sh *shell) printBikes(bikes []rental.Bike) {
	if len(bikes) == 0 {
		fmt.Fprintln(sh.out, "No bikes registered.")
		return
	}
	fmt.Fprintf(sh.out, "%-5s %-32s %-8s\n", "#", "Name", "On loan")
	fmt.Fprintln(sh.out, strings.Repeat("-", 47))
	for i, b := range bikes {
		onLoan := "No"
		for _, l := range sh.mgr.Store().LoansForBike(b.Name) {
			if l.Status == rental.StatusOngoing {
				onLoan = "Yes"
				break
			}
		}
		fmt.Fprintf(sh.out, "%-5d %-32s %-8s\n", i+1, b.Name, onLoan)
	}
}

func (sh *shell) printLoans(loans []rental.Loan) {
	if len(loans) == 0 {
		fmt.Fprintln(sh.out, "No loans found.")
		return
	}
	now := sh.mgr.Now()
	fmt.Fprintf(sh.out, "%-6s %-20s %-10s %-12s %-8s %-9s %-17s %s\n", "ID", "Name", "NRIC", "Bike", "Rate", "Status", "Start", "Cost")
	fmt.Fprintln(sh.out, strings.Repeat("-", 100))
	for _, l := range loans {
		fmt.Fprintf(sh.out, "%-6d %-20s %-10s %-12s %-8.2f %-9s %-17s $%.2f\n",
			l.ID,
			truncateString(l.Name, 20),
			l.NRIC,
			truncateString(l.Bike, 12),
			l.Rate,
			l.Status,
			l.StartTime.Local().Format("2006-01-02 15:04"),
			l.Cost(now))
	}
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength-3] + "..."
}
