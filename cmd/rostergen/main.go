// rostergen prints synthetic roster data as JSON: a list of users by
// default, or the activity feed of one user with --user.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"github.com/BradenHooton/roster/internal/source"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var count, activities int
	var seed uint64
	var userID string
	var compact bool

	flagSet := pflag.NewFlagSet("rostergen", pflag.ContinueOnError)
	flagSet.IntVarP(&count, "count", "n", 50, "number of users to generate")
	flagSet.IntVar(&activities, "activities", 5, "number of activity entries with --user")
	flagSet.Uint64Var(&seed, "seed", 0, "random seed (0 picks a random one)")
	flagSet.StringVar(&userID, "user", "", "print the activity feed of this user id instead of users")
	flagSet.BoolVar(&compact, "compact", false, "emit JSON without indentation")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet, out)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet, out)
		return nil
	}

	if count < 0 {
		return fmt.Errorf("--count must not be negative (got %d)", count)
	}
	if activities < 0 {
		return fmt.Errorf("--activities must not be negative (got %d)", activities)
	}

	var opts []source.GeneratorOption
	if seed != 0 {
		opts = append(opts, source.WithRand(rand.New(rand.NewPCG(seed, seed))))
	}
	gen := source.NewGenerator(opts...)

	var payload any
	if userID != "" {
		payload = gen.GenerateActivities(userID, activities)
	} else {
		payload = gen.GenerateUsers(count)
	}

	enc := json.NewEncoder(out)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(payload)
}

func printHelp(flagSet *pflag.FlagSet, out io.Writer) {
	fmt.Fprintln(out, "Usage: rostergen [flags]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Print synthetic roster users (or one user's activities) as JSON.")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Flags:")
	flagSet.SetOutput(out)
	flagSet.PrintDefaults()
}
