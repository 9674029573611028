package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/antibyte/retrobasic/pkg/auth"
	"github.com/antibyte/retrobasic/pkg/configuration"
	"github.com/antibyte/retrobasic/pkg/teletype"
	"github.com/antibyte/retrobasic/pkg/tinybasic"
	tlsmanager "github.com/antibyte/retrobasic/pkg/tls"
)

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Run a program file and exit",
	Long: `Loads FILE from disk and runs it. INPUT reads from stdin.
LOAD and SAVE inside the program use the configured storage.`,
	Args: cobra.ExactArgs(1),
	RunE: runFile,
}

var savePassword bool

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Print a bcrypt hash for [Auth] password_hash",
	Args:  cobra.NoArgs,
	RunE:  runHashPassword,
}

var certHosts []string

var genCertCmd = &cobra.Command{
	Use:   "gen-cert CERTFILE KEYFILE",
	Short: "Write a self-signed certificate for development",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := tlsmanager.GenerateSelfSignedCert(args[0], args[1], certHosts...); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "certificate written to %s, key to %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	hashPasswordCmd.Flags().BoolVar(&savePassword, "save", false, "store the hash in the configuration file")
	genCertCmd.Flags().StringSliceVar(&certHosts, "host", []string{"localhost", "127.0.0.1"}, "host names and addresses of the certificate")
	rootCmd.AddCommand(runCmd, hashPasswordCmd, genCertCmd)
}

func runFile(cmd *cobra.Command, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	store, err := openStorage()
	if err != nil {
		return err
	}
	defer store.close()

	tty := teletype.NewStream(cmd.InOrStdin(), cmd.OutOrStdout())
	stop := notifyBreak(tty.Cancellation())
	defer stop()

	basic := tinybasic.NewTinyBASIC(tty, store.fs, tinybasic.LoadOptions())
	basic.SetOwner(store.owner)
	if err := basic.LoadProgram(string(source)); err != nil {
		basic.Report(err)
		return err
	}
	err = basic.RunProgram()
	switch {
	case err == nil, errors.Is(err, tinybasic.ErrExit):
		return nil
	case tinybasic.IsKind(err, tinybasic.End):
		return nil
	}
	if _, ok := tinybasic.AsBASICError(err); ok {
		basic.Report(err)
	}
	return err
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if savePassword {
		configuration.SetString("Auth", "password_hash", hash)
		if err := configuration.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "password hash saved to %s\n", cfgFile)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

// readPassword reads without echo on a terminal and one line otherwise.
func readPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		return string(b), err
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
