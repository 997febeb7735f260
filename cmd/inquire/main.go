package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	appconfig "github.com/wolfman30/vendor-inquiry/internal/config"
	"github.com/wolfman30/vendor-inquiry/internal/inquiry"
	"github.com/wolfman30/vendor-inquiry/internal/inquiryclient"
	"github.com/wolfman30/vendor-inquiry/internal/inquiryform"
	"github.com/wolfman30/vendor-inquiry/pkg/logging"
)

// closeCommand typed at any prompt closes the form without submitting.
const closeCommand = ":close"

var errClosed = errors.New("form closed")

// Prompt order matches the browser form.
var prompts = []struct {
	field inquiry.Field
	label string
}{
	{inquiry.FieldName, "Your Full Name"},
	{inquiry.FieldContactNumber, "Contact Number"},
	{inquiry.FieldCategory, "Vendor Category (number or name)"},
	{inquiry.FieldLocation, "Your City / Location"},
	{inquiry.FieldRequirement, "Describe Your Requirement"},
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "inquire:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	cfg := appconfig.Load()

	fs := flag.NewFlagSet("inquire", flag.ContinueOnError)
	fs.SetOutput(errOut)
	baseURL := fs.String("base-url", cfg.InquiryAPIBaseURL, "inquiry API base URL")
	resetDelay := fs.Duration("reset-delay", cfg.InquiryResetDelay, "how long the confirmation stays up")
	logLevel := fs.String("log-level", "error", "log level for diagnostics on stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := logging.NewWithWriter(*logLevel, errOut)
	client, err := inquiryclient.New(inquiryclient.Config{BaseURL: *baseURL, Logger: logger})
	if err != nil {
		return err
	}

	closed := make(chan struct{})
	var closeOnce sync.Once
	ctrl := inquiryform.New(client,
		inquiryform.WithNotifier(inquiryform.NewWriterNotifier(errOut)),
		inquiryform.WithOnClose(func() { closeOnce.Do(func() { close(closed) }) }),
		inquiryform.WithResetDelay(*resetDelay),
		inquiryform.WithLogger(logger),
		inquiryform.WithListener(func(s inquiryform.Snapshot) {
			if s.State == inquiryform.StateSubmitting {
				fmt.Fprintln(out, s.SubmitLabel())
			}
		}),
	)
	defer ctrl.Dispose()

	fmt.Fprintf(out, "Tell Us What You Need (posting to %s)\n", client.Endpoint())
	fmt.Fprintf(out, "Type %s at any prompt to close the form.\n\n", closeCommand)

	scanner := bufio.NewScanner(in)
	for round := 0; ; round++ {
		if round > 0 {
			fmt.Fprintln(out, "\nPress Enter to keep a value.")
		}
		if err := promptFields(scanner, out, ctrl); err != nil {
			if errors.Is(err, errClosed) {
				ctrl.Dismiss()
				return nil
			}
			return err
		}

		outcome, err := ctrl.Submit(ctx)
		if err == nil {
			fmt.Fprintf(out, "\nSubmission Successful!\n%s\n", outcome.Message)
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	select {
	case <-closed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func promptFields(scanner *bufio.Scanner, out io.Writer, ctrl *inquiryform.Controller) error {
	for _, p := range prompts {
		current, _ := ctrl.Snapshot().Draft.Get(p.field)
		if p.field == inquiry.FieldCategory {
			printCategories(out)
		}
		if current != "" {
			fmt.Fprintf(out, "%s [%s]: ", p.label, current)
		} else {
			fmt.Fprintf(out, "%s: ", p.label)
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			return io.ErrUnexpectedEOF
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == closeCommand {
			return errClosed
		}
		if line == "" && current != "" {
			continue
		}
		if p.field == inquiry.FieldCategory {
			line = resolveCategory(line)
		}
		if err := ctrl.UpdateField(p.field, line); err != nil {
			return err
		}
	}
	return nil
}

func printCategories(out io.Writer) {
	fmt.Fprintln(out, "Select Vendor Category:")
	for i, c := range inquiry.Categories() {
		fmt.Fprintf(out, "  %2d. %s\n", i+1, c)
	}
}

// resolveCategory maps a 1-based list number to its label; anything else passes through.
func resolveCategory(input string) string {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return input
	}
	categories := inquiry.Categories()
	if n < 1 || n > len(categories) {
		return input
	}
	return categories[n-1]
}
