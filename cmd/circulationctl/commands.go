package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"circulation/internal/client"
	"circulation/internal/domain/entity"
	"circulation/internal/errors"
	"circulation/internal/util"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const dateLayout = "2006-01-02"

func newLoginCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			sess, err := opts.dial(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.Close()

			out, err := sess.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			if err := saveToken(opts.sessionFile, out.SessionToken); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s), session valid for %s\n",
				out.User.Username, out.User.Role, util.FormatDuration(time.Until(out.ExpiresAt).Round(time.Second)))

			return nil
		},
	}
}

func newLogoutCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if sess, err := opts.resume(cmd.Context()); err == nil {
				_ = sess.Logout(cmd.Context())
				_ = sess.Close()
			}

			return removeToken(opts.sessionFile)
		},
	}
}

func newBorrowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "borrow <book-id>",
		Short: "Borrow a copy of a book",
		Args:  cobra.ExactArgs(1),
		RunE: recordCommand(opts, func(ctx context.Context, sess *client.Session, id int64) (*entity.BorrowRecord, error) {
			return sess.Borrow(ctx, id)
		}),
	}
}

func newReturnCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "return <record-id>",
		Short: "Return a borrowed copy",
		Args:  cobra.ExactArgs(1),
		RunE: recordCommand(opts, func(ctx context.Context, sess *client.Session, id int64) (*entity.BorrowRecord, error) {
			return sess.Return(ctx, id)
		}),
	}
}

func newRenewCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "renew <record-id>",
		Short: "Extend a loan",
		Args:  cobra.ExactArgs(1),
		RunE: recordCommand(opts, func(ctx context.Context, sess *client.Session, id int64) (*entity.BorrowRecord, error) {
			return sess.Renew(ctx, id)
		}),
	}
}

// recordCommand parses the id argument, runs call on a resumed session and
// prints the resulting record.
func recordCommand(opts *globalOptions, call func(context.Context, *client.Session, int64) (*entity.BorrowRecord, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return errors.Errorf("invalid id %q", args[0])
		}

		sess, err := opts.resume(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		record, err := call(cmd.Context(), sess, id)
		if err != nil {
			return err
		}

		printRecords(cmd.OutOrStdout(), []*entity.BorrowRecord{record})

		return nil
	}
}

func newRecordsCmd(opts *globalOptions) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "records",
		Short: "List your loans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := opts.resume(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.Close()

			records, err := sess.Records(cmd.Context(), status)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No records.")

				return nil
			}
			printRecords(cmd.OutOrStdout(), records)

			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "BORROWING, RETURNED, LOST or DAMAGED")

	return cmd
}

func newSettingsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Show the circulation policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := opts.resume(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.Close()

			settings, err := sess.Settings(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Loan period\t%d days\n", settings.MaxBorrowDays)
			fmt.Fprintf(w, "Loan limit\t%d books\n", settings.MaxBorrowBooks)
			fmt.Fprintf(w, "Renewal\t+%d days\n", settings.RenewalDays)
			fmt.Fprintf(w, "Overdue fine\t%d per day\n", settings.OverdueFinePerDay)
			fmt.Fprintf(w, "Lost book fine\t%d\n", settings.LostBookFine)
			fmt.Fprintf(w, "Damaged book fine\t%d\n", settings.DamagedBookFine)
			fmt.Fprintf(w, "Overdue reminders\t%t (%d days ahead)\n", settings.AutoCheckOverdue, settings.ReminderDaysBefore)

			return w.Flush()
		},
	}
}

func newWatchCmd(opts *globalOptions) *cobra.Command {
	var (
		interval time.Duration
		jitter   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stay connected and report when the server ends the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sess, err := opts.resume(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			out := cmd.OutOrStdout()
			poller, err := client.NewStatusPoller(sess,
				client.WithInterval(interval),
				client.WithJitter(jitter),
				client.WithCheckTimeout(opts.timeout),
				client.WithLogger(opts.logger()),
				client.WithStatusHandler(func(user *entity.User) {
					fmt.Fprintf(out, "%s  %s: %s, %d on loan, fines %d\n",
						time.Now().Format(time.TimeOnly), user.Username, user.Status, user.CurrentBorrowed, user.TotalFines)
				}),
			)
			if err != nil {
				return err
			}

			pollCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			go func() {
				select {
				case <-sess.Done():
					cancel()
				case <-pollCtx.Done():
				}
			}()

			err = poller.Run(pollCtx)
			switch {
			case errors.Is(err, client.ErrForcedLogout):
				_ = removeToken(opts.sessionFile)

				return errors.Wrap(err, "logged out")
			case err != nil:
				return err
			case ctx.Err() == nil:
				return client.ErrDisconnected
			}

			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "time between status checks")
	cmd.Flags().DurationVar(&jitter, "jitter", 5*time.Second, "random delay added to each interval")

	return cmd
}

func printRecords(w io.Writer, records []*entity.BorrowRecord) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RECORD\tBOOK\tTITLE\tBORROWED\tDUE\tSTATUS\tRENEWALS\tFINE")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%d\t%d\n",
			r.ID, r.BookID, r.BookTitle,
			r.BorrowDate.Local().Format(dateLayout), r.DueDate.Local().Format(dateLayout),
			r.Status, r.RenewCount, r.Fine)
	}
	_ = tw.Flush()
}

// readPassword reads without echo from a terminal, or one line otherwise.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", errors.Wrap(err, "failed to read password")
		}

		return strings.TrimSpace(string(raw)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", errors.Wrap(err, "failed to read password")
	}

	return strings.TrimSpace(line), nil
}
